// Package dashboard assembles the gym dashboard's data layer.
//
// A Dashboard owns one session store, one API client, one cache store and
// one revalidation engine. Consumers read through hook accessors (User,
// Exercises, Routines, AdminUsers, ExercisesAndRoutines) and write through
// actions (Train, Rest, CreateExercise, ...), each of which revalidates the
// keys it affects.
//
// A 401 on any authenticated request clears the session, resets the caches
// and sends the Navigator to LoginRoute.
package dashboard
