package constants

// Centralized constants for env keys, headers, routes and log fields.
const (
	// Environment variable keys
	EnvConfigPath = "POKEARENA_CONFIG"
	EnvDBPath     = "POKEARENA_DB"
	EnvTelemetry  = "POKEARENA_TELEMETRY"
	EnvHealthURL  = "POKEARENA_HEALTH_URL"

	DefaultConfigPath = "./pokearena_config.json"
	DefaultDBPath     = "./data/pokearena.db"

	// HTTP headers and content types
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderUserAgent   = "User-Agent"

	ContentTypeJSON = "application/json"
	UserAgent       = "pokearena/1.0"

	// PokeAPI endpoints
	PokeAPIBaseURL     = "https://pokeapi.co/api/v2"
	PokeAPIPokemonPath = "/pokemon/"
	PokeAPIMovePath    = "/move/"

	// Telemetry
	ServiceName = "pokearena"
)

// Routes used by the backend router
const (
	RouteHealth         = "/health"
	RouteAPIPrefix      = "/api"
	RouteVersion        = "/version"
	RoutePopular        = "/combatants/popular"
	RouteCombatantByID  = "/combatants/:id"
	RouteBattles        = "/battles"
	RouteBattleByID     = "/battles/:battleID"
	RouteBattleAttack   = "/battles/:battleID/attack"
	RouteBattleStream   = "/battles/:battleID/stream"
	RouteLeaderboard    = "/leaderboard"
	RouteTrainerStats   = "/trainers/:name/stats"
	DefaultLeaderboardN = 100
	MaxLeaderboardN     = 100
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyDetails = "details"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest         = "Invalid request"
	ErrBattleNotFound         = "Battle not found"
	ErrInvalidTrainerName     = "Trainer name must be 1-30 characters"
	ErrInvalidCombatantID     = "Invalid combatant id"
	ErrFailedFetchCombatant   = "Failed to fetch combatant"
	ErrFailedStartBattle      = "Failed to start battle"
	ErrInvalidActionIndex     = "Invalid action index"
	ErrBattleAlreadyOver      = "Battle is already over"
	ErrNotYourTurn            = "It is not your turn"
	ErrFailedResolveRound     = "Failed to resolve round"
	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrFailedSaveScore        = "Failed to save score"
	ErrInvalidScore           = "Score must be between 0 and 999999"
	ErrFailedFetchStats       = "Failed to fetch stats"
	ErrFailedEncodeResponse   = "Failed to encode response"
)

// Logging field names
const (
	LogFieldBattleID    = "battle_id"
	LogFieldTrainer     = "trainer"
	LogFieldCombatantID = "combatant_id"
	LogFieldResult      = "result"
	LogFieldScoreDelta  = "score_delta"
	LogFieldTurn        = "turn"
	LogFieldSource      = "source"
	LogFieldKey         = "key"
	LogFieldAddr        = "addr"
	LogFieldURL         = "url"
	LogFieldStatus      = "status"
	LogFieldCount       = "count"
)
