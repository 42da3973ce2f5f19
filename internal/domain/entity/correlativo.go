package entity

import "time"

// Correlative contador de numeración por (sucursal, tipo de documento, serie).
// Se muta únicamente mediante el incremento atómico del repositorio: nunca
// decrece y un número asignado jamás se reutiliza, aunque el documento dueño
// sea dado de baja después.
type Correlative struct {
	BranchID     string
	TipoDoc      string
	Serie        string
	Current      uint64 // último número asignado
	UpdatedAt    time.Time
}
