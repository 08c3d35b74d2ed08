package domain

// Wire codes match the institutional database: single-letter shifts,
// three-letter levels, two-letter item categories.

type Shift string

const (
	ShiftMorning   Shift = "M"
	ShiftAfternoon Shift = "T"
	ShiftNight     Shift = "N"
)

func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

func (s Shift) Display() string {
	switch s {
	case ShiftMorning:
		return "Mañana"
	case ShiftAfternoon:
		return "Tarde"
	case ShiftNight:
		return "Noche"
	}
	return string(s)
}

type Level string

const (
	LevelSecondary Level = "SEC"
	LevelHigher    Level = "SUP"
	LevelStaff     Level = "PER"
)

func (l Level) Valid() bool {
	switch l {
	case LevelSecondary, LevelHigher, LevelStaff:
		return true
	}
	return false
}

func (l Level) Display() string {
	switch l {
	case LevelSecondary:
		return "Secundario"
	case LevelHigher:
		return "Superior"
	case LevelStaff:
		return "Personal/Docente"
	}
	return string(l)
}

type Category string

const (
	CategoryNotebook      Category = "NB"
	CategoryTablet        Category = "TB"
	CategoryExtensionCord Category = "AL"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryNotebook, CategoryTablet, CategoryExtensionCord:
		return true
	}
	return false
}

func (c Category) Display() string {
	switch c {
	case CategoryNotebook:
		return "Notebook"
	case CategoryTablet:
		return "Tablet"
	case CategoryExtensionCord:
		return "Alargue"
	}
	return string(c)
}

// Program is the higher-education program; only meaningful when Level is SUP.
type Program string

const (
	ProgramTCD  Program = "TCD"  // Tecnicatura en Ciencia de Datos
	ProgramPTEC Program = "PTEC" // Profesorado en Tecnologías
)

func (p Program) Valid() bool {
	return p == ProgramTCD || p == ProgramPTEC
}

// NormalizeShift applies the institutional rule that higher-education
// requesters always get the night shift. Every write path that sets a
// level goes through here so the rule cannot diverge between callers.
func NormalizeShift(level Level, shift Shift) Shift {
	if level == LevelHigher {
		return ShiftNight
	}
	return shift
}
