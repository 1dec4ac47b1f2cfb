package engine

// Category classifies a battle log line.
type Category string

const (
	CategoryAttack  Category = "attack"
	CategoryDamage  Category = "damage"
	CategoryEffect  Category = "effect"
	CategoryOutcome Category = "outcome"
	CategoryInfo    Category = "info"
)

// LogEntry is one line of the battle log.
type LogEntry struct {
	Turn     int      `json:"turn"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
}
