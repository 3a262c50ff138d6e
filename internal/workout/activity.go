package workout

// Activity type codes follow the HealthKit HKWorkoutActivityType raw values,
// which is what iOS exports and what the importer maps FIT sports onto.
const (
	ActivityCycling                     = 13
	ActivityElliptical                  = 16
	ActivityFunctionalStrengthTraining  = 20
	ActivityHiking                      = 24
	ActivityRowing                      = 35
	ActivityRunning                     = 37
	ActivitySwimming                    = 46
	ActivityTraditionalStrengthTraining = 50
	ActivityWalking                     = 52
	ActivityYoga                        = 57
	ActivityCrossCountrySkiing          = 60
	ActivityDownhillSkiing              = 61
	ActivityHIIT                        = 63
	ActivitySnowboarding                = 67
	ActivityOther                       = 3000
)

var activityLabels = map[int]string{
	1:                                   "American Football",
	2:                                   "Archery",
	3:                                   "Australian Football",
	4:                                   "Badminton",
	5:                                   "Baseball",
	6:                                   "Basketball",
	7:                                   "Bowling",
	8:                                   "Boxing",
	9:                                   "Climbing",
	10:                                  "Cricket",
	11:                                  "Cross Training",
	12:                                  "Curling",
	ActivityCycling:                     "Cycling",
	14:                                  "Dance",
	ActivityElliptical:                  "Elliptical",
	17:                                  "Equestrian Sports",
	18:                                  "Fencing",
	19:                                  "Fishing",
	ActivityFunctionalStrengthTraining:  "Functional Strength Training",
	21:                                  "Golf",
	22:                                  "Gymnastics",
	23:                                  "Handball",
	ActivityHiking:                      "Hiking",
	25:                                  "Hockey",
	26:                                  "Hunting",
	27:                                  "Lacrosse",
	28:                                  "Martial Arts",
	29:                                  "Mind and Body",
	31:                                  "Paddle Sports",
	32:                                  "Play",
	33:                                  "Preparation and Recovery",
	34:                                  "Racquetball",
	ActivityRowing:                      "Rowing",
	36:                                  "Rugby",
	ActivityRunning:                     "Running",
	38:                                  "Sailing",
	39:                                  "Skating",
	40:                                  "Snow Sports",
	41:                                  "Soccer",
	42:                                  "Softball",
	43:                                  "Squash",
	44:                                  "Stair Climbing",
	45:                                  "Surfing",
	ActivitySwimming:                    "Swimming",
	47:                                  "Table Tennis",
	48:                                  "Tennis",
	49:                                  "Track and Field",
	ActivityTraditionalStrengthTraining: "Traditional Strength Training",
	51:                                  "Volleyball",
	ActivityWalking:                     "Walking",
	53:                                  "Water Fitness",
	54:                                  "Water Polo",
	55:                                  "Water Sports",
	56:                                  "Wrestling",
	ActivityYoga:                        "Yoga",
	58:                                  "Barre",
	59:                                  "Core Training",
	ActivityCrossCountrySkiing:          "Cross Country Skiing",
	ActivityDownhillSkiing:              "Downhill Skiing",
	62:                                  "Flexibility",
	ActivityHIIT:                        "High Intensity Interval Training",
	64:                                  "Jump Rope",
	65:                                  "Kickboxing",
	66:                                  "Pilates",
	ActivitySnowboarding:                "Snowboarding",
	68:                                  "Stairs",
	69:                                  "Step Training",
	70:                                  "Wheelchair Walk Pace",
	71:                                  "Wheelchair Run Pace",
	72:                                  "Tai Chi",
	73:                                  "Mixed Cardio",
	74:                                  "Hand Cycling",
	75:                                  "Disc Sports",
	76:                                  "Fitness Gaming",
	77:                                  "Cardio Dance",
	78:                                  "Social Dance",
	79:                                  "Pickleball",
	80:                                  "Cooldown",
	82:                                  "Multisport",
	83:                                  "Transition",
	84:                                  "Underwater Diving",
	ActivityOther:                       "Other",
}

// ActivityLabel returns the display label of a native activity type.
// Unrecognized codes map to "Other".
func ActivityLabel(code int) string {
	if label, ok := activityLabels[code]; ok {
		return label
	}
	return "Other"
}
