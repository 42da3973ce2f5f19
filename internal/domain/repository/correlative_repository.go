package repository

import "context"

// CorrelativeRepository contador atómico de numeración por
// (sucursal, tipo de documento, serie). Es el único punto del sistema donde
// una carrera de lost-update es inaceptable: la implementación debe garantizar
// que dos llamadores concurrentes nunca reciban el mismo número.
type CorrelativeRepository interface {
	// ReserveRange reserva count números contiguos y devuelve el primero del
	// rango [start, start+count). count == 1 es el incremento unitario.
	ReserveRange(ctx context.Context, branchID, tipoDoc, serie string, count uint64) (start uint64, err error)

	// Current último número asignado (0 si la clave no existe aún).
	Current(ctx context.Context, branchID, tipoDoc, serie string) (uint64, error)
}
