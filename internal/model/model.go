package model

// Edge is a one-way street segment. Weight is a distance in meters.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Speeds are the walking speeds of the three contestants.
type Speeds [3]int

type BroadcastResponse struct {
	Network      string  `json:"network,omitempty"`
	Time         int     `json:"time"`
	Feasible     bool    `json:"feasible"`
	Reason       string  `json:"reason,omitempty"`
	MaxDistance  float64 `json:"max_distance"`
	SlowestSpeed float64 `json:"slowest_speed"`
	CacheHit     bool    `json:"cache_hit"`
}

type CacheStats struct {
	Gets      int `json:"gets"`
	Hits      int `json:"hits"`
	Puts      int `json:"puts"`
	Evictions int `json:"evictions"`
}
