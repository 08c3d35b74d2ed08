package domain

// ItemUsage is one row of the usage ranking.
type ItemUsage struct {
	Code     string   `json:"code"`
	Category Category `json:"tipo"`
	Hours    float64  `json:"horas"`
}

// UsageStats aggregates closed loans over a reporting window.
type UsageStats struct {
	TotalHours      float64              `json:"horas_totales"`
	HoursByCategory map[Category]float64 `json:"horas_por_tipo"`
	HoursByShift    map[Shift]float64    `json:"uso_por_turno"`
	AvgDuration     float64              `json:"promedio_duracion"`
	TopItems        []ItemUsage          `json:"top_items"`
	LateReturns     int32                `json:"devoluciones_tardias"`
	InMaintenance   int32                `json:"en_mantenimiento"`
}
