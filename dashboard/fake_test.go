package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/gymcache/api"
)

// fakeAPI is an in-memory gym server.
type fakeAPI struct {
	mu        sync.Mutex
	users     map[int64]api.User
	passwords map[string]string
	exercises []api.Exercise
	routines  []api.Routine
	hits      map[string]int
	lastAuth  map[string]string
	expired   bool
	failTrain bool
	trainGate chan struct{}
	nextID    int64
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		users: map[int64]api.User{
			1:  {ID: 1, Name: "Root", Username: "root", Role: api.RoleAdmin},
			42: {ID: 42, Name: "Ada", Username: "ada", Role: api.RoleUser, Strength: 10, Endurance: 20, Flexibility: 30},
		},
		passwords: map[string]string{"root": "password1", "ada": "password1"},
		hits:      make(map[string]int),
		lastAuth:  make(map[string]string),
		nextID:    100,
	}

	r := chi.NewRouter()
	r.Use(f.count)
	r.Head("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Post("/api/auth/login", f.login)
	r.Post("/api/auth/register", f.register)
	r.Group(func(r chi.Router) {
		r.Use(f.requireAuth)
		r.Get("/api/users/{id}", f.getUser)
		r.Post("/api/users/{id}/train", f.train)
		r.Post("/api/users/{id}/rest", f.rest)
		r.Get("/api/exercises", f.listExercises)
		r.Post("/api/exercises", f.createExercise)
		r.Get("/api/routines", f.listRoutines)
		r.Get("/api/admin/users", f.listUsers)
		r.Put("/api/admin/users/{id}/role", f.changeRole)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		k := r.Method + " " + r.URL.Path
		f.hits[k]++
		f.lastAuth[k] = r.Header.Get("Authorization")
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) hit(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeAPI) auth(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth[key]
}

func (f *fakeAPI) expire() {
	f.mu.Lock()
	f.expired = true
	f.mu.Unlock()
}

func (f *fakeAPI) setFailTrain(v bool) {
	f.mu.Lock()
	f.failTrain = v
	f.mu.Unlock()
}

func (f *fakeAPI) rename(id int64, name string) {
	f.mu.Lock()
	u := f.users[id]
	u.Name = name
	f.users[id] = u
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer tok-")
		f.mu.Lock()
		expired := f.expired
		f.mu.Unlock()
		if !ok || token == "" || expired {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.passwords[req.Username] != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	for id, u := range f.users {
		if u.Username == req.Username {
			writeJSON(w, http.StatusOK, api.AuthResponse{Token: "tok-" + strconv.FormatInt(id, 10), ID: id})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
}

func (f *fakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.users[id] = api.User{ID: id, Name: req.Name, Username: req.Username, Role: api.RoleUser}
	f.passwords[req.Username] = req.Password
	writeJSON(w, http.StatusOK, api.AuthResponse{Token: "tok-" + strconv.FormatInt(id, 10), ID: id})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func (f *fakeAPI) getUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	u, ok := f.users[pathID(r)]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (f *fakeAPI) train(w http.ResponseWriter, r *http.Request) {
	var req api.TrainRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	gate, fail := f.trainGate, f.failTrain
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		return
	}
	f.mu.Lock()
	u := f.users[pathID(r)].WithTraining(req.Stat, req.Amount)
	f.users[u.ID] = u
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (f *fakeAPI) rest(w http.ResponseWriter, r *http.Request) {
	var req api.RestRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	u := f.users[pathID(r)].WithRest(req.Amount)
	f.users[u.ID] = u
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (f *fakeAPI) listExercises(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := append([]api.Exercise{}, f.exercises...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeAPI) createExercise(w http.ResponseWriter, r *http.Request) {
	var req api.ExerciseRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.nextID++
	e := api.Exercise{ID: f.nextID, Name: req.Name, Description: req.Description, StrengthImpact: req.StrengthImpact}
	f.exercises = append(f.exercises, e)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, e)
}

func (f *fakeAPI) listRoutines(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := append([]api.Routine{}, f.routines...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeAPI) listUsers(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]api.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeAPI) changeRole(w http.ResponseWriter, r *http.Request) {
	var req api.RoleRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	u := f.users[pathID(r)]
	u.Role = req.Role
	f.users[u.ID] = u
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}
