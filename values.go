package railcache

import "time"

// Domain value shapes stored by the façades. The store layer owns these
// records; the cache only serializes and transports them.

// TrainsetData is the cached record for a single trainset
type TrainsetData struct {
	ID                string    `json:"id"`
	Capacity          int       `json:"capacity"`
	Status            string    `json:"status"` // in-service, standby, maintenance
	MileageKM         float64   `json:"mileageKm"`
	FitnessValidUntil time.Time `json:"fitnessValidUntil"`
	OpenJobCards      int       `json:"openJobCards"`
	StablingBay       string    `json:"stablingBay"`
}

// TrainsetSummary is the list-projection of a trainset
type TrainsetSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Bay    string `json:"bay"`
}

// TrainsetList is a cached filtered listing of trainsets
type TrainsetList struct {
	Items []TrainsetSummary `json:"items"`
	Total int               `json:"total"`
}

// ScheduleEntry assigns a trainset to a role for a service date
type ScheduleEntry struct {
	TrainsetID string `json:"trainsetId"`
	Role       string `json:"role"` // service, standby, maintenance
	Bay        string `json:"bay"`
	Rank       int    `json:"rank"`
}

// OptimizedSchedule is the induction plan computed for one service date
type OptimizedSchedule struct {
	Date        string          `json:"date"`
	Entries     []ScheduleEntry `json:"entries"`
	Score       float64         `json:"score"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Conflict describes a rule violated by a schedule
type Conflict struct {
	TrainsetID string `json:"trainsetId"`
	Rule       string `json:"rule"`
	Detail     string `json:"detail"`
}

// ScheduleConflicts is the conflict report for one service date
type ScheduleConflicts struct {
	Date      string     `json:"date"`
	Conflicts []Conflict `json:"conflicts"`
}

// OptimizationResult is the cached output of one optimization run
type OptimizationResult struct {
	Schedule   OptimizedSchedule `json:"schedule"`
	Iterations int               `json:"iterations"`
	RuntimeMS  int64             `json:"runtimeMs"`
	Algorithm  string            `json:"algorithm"`
}

// AlgorithmPerformance is the slow-moving performance profile of an
// optimization algorithm
type AlgorithmPerformance struct {
	AlgorithmID  string  `json:"algorithmId"`
	Runs         int     `json:"runs"`
	AvgRuntimeMS float64 `json:"avgRuntimeMs"`
	AvgScore     float64 `json:"avgScore"`
}

// PerformanceMetrics aggregates operational KPIs for a scope
type PerformanceMetrics struct {
	Scope             string  `json:"scope"`
	PunctualityPct    float64 `json:"punctualityPct"`
	FleetAvailability float64 `json:"fleetAvailability"`
	AvgTurnaroundMin  float64 `json:"avgTurnaroundMin"`
}

// DashboardData is a rendered dashboard snapshot for a scope
type DashboardData struct {
	Scope       string             `json:"scope"`
	Widgets     map[string]float64 `json:"widgets"`
	GeneratedAt time.Time          `json:"generatedAt"`
}
