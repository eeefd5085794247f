package models

// UserStats merges host-side and volunteer-side counters for one user.
type UserStats struct {
	TotalPosts       int     `json:"totalPosts"`
	ActivePickups    int     `json:"activePickups"`
	CompletedPickups int     `json:"completedPickups"`
	MealsSaved       int     `json:"mealsSaved"`
	PickupsAccepted  int     `json:"pickupsAccepted"`
	PickupsCompleted int     `json:"pickupsCompleted"`
	Rating           float64 `json:"rating"`
}

type AdminStats struct {
	TotalPosts       int      `json:"totalPosts"`
	ActivePosts      int      `json:"activePosts"`
	CompletedPickups int      `json:"completedPickups"`
	FlaggedPosts     int      `json:"flaggedPosts"`
	TotalVolunteers  int      `json:"totalVolunteers"`
	TotalHosts       int      `json:"totalHosts"`
	MealsSaved       int      `json:"mealsSaved"`
	CitiesActive     []string `json:"citiesActive"`
}
