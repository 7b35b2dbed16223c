package matrix

// Stamper receives Jacobian contributions (0-based indexing).
type Stamper interface {
	AddElement(i, j int, value float64)
}
