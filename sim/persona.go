package sim

// Task values sent in the recommend request body.
const (
	TaskMusic   = "music"
	TaskSleep   = "sleep"
	TaskPodcast = "podcast"
)

// Activity values carried in the request context.
const (
	ActivityCommute = "commute"
	ActivityWorkout = "workout"
	ActivityFocus   = "focus"
	ActivitySleep   = "sleep"
	ActivityRelax   = "relax"
	ActivityParty   = "party"
	ActivityDriving = "driving"
)

// Devices assigned cyclically to generated personas.
var Devices = []string{"mobile", "desktop", "smart_speaker", "tablet"}

// Persona is a synthetic end-user profile driving one recommend request per run.
// Personas are built once per fleet and never mutated afterwards.
type Persona struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Task        string `json:"task" yaml:"task"`
	Activity    string `json:"activity" yaml:"activity"`
	HourOfDay   int    `json:"hour" yaml:"hour"`
	Device      string `json:"device" yaml:"device"`
}

// taskActivity pairs a task with an activity that makes sense for it.
type taskActivity struct {
	task     string
	activity string
}

// fillerProfiles is cycled through when generating filler personas.
var fillerProfiles = []taskActivity{
	{TaskMusic, ActivityWorkout},
	{TaskMusic, ActivityFocus},
	{TaskSleep, ActivitySleep},
	{TaskPodcast, ActivityCommute},
	{TaskMusic, ActivityParty},
	{TaskMusic, ActivityRelax},
	{TaskPodcast, ActivityDriving},
}

// CuratedPersonas returns the hand-written personas that lead every fleet.
func CuratedPersonas() []Persona {
	return []Persona{
		{ID: "user_layla_commuter", DisplayName: "Layla (Morning Commute)", Task: TaskMusic, Activity: ActivityCommute, HourOfDay: 8, Device: "mobile"},
		{ID: "user_omar_runner", DisplayName: "Omar (Evening Run)", Task: TaskMusic, Activity: ActivityWorkout, HourOfDay: 19, Device: "mobile"},
		{ID: "user_sara_sleeper", DisplayName: "Sara (Wind Down)", Task: TaskSleep, Activity: ActivitySleep, HourOfDay: 23, Device: "smart_speaker"},
		{ID: "user_khalid_driver", DisplayName: "Khalid (Long Drive)", Task: TaskPodcast, Activity: ActivityDriving, HourOfDay: 17, Device: "mobile"},
		{ID: "user_mona_focus", DisplayName: "Mona (Deep Work)", Task: TaskMusic, Activity: ActivityFocus, HourOfDay: 14, Device: "desktop"},
	}
}
