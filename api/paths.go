package api

import "strconv"

// Resource paths double as cache keys.
const (
	ExercisesPath  = "/api/exercises"
	RoutinesPath   = "/api/routines"
	AdminUsersPath = "/api/admin/users"

	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
)

// UserPath returns /api/users/{id}.
func UserPath(id int64) string {
	return "/api/users/" + strconv.FormatInt(id, 10)
}

func userActionPath(id int64, action string) string {
	return UserPath(id) + "/" + action
}

func exercisePath(id int64) string {
	return ExercisesPath + "/" + strconv.FormatInt(id, 10)
}

func routinePath(id int64) string {
	return RoutinesPath + "/" + strconv.FormatInt(id, 10)
}

func adminUserPath(id int64) string {
	return AdminUsersPath + "/" + strconv.FormatInt(id, 10)
}
