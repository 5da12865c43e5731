// Command gymdash logs into the gym API, prints the dashboard and serves
// health and metrics until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/gymcache/api"
	"github.com/jonwraymond/gymcache/config"
	"github.com/jonwraymond/gymcache/dashboard"
	"github.com/jonwraymond/gymcache/health"
	"github.com/jonwraymond/gymcache/observe"
)

func main() {
	configPath := flag.String("config", "", "config file (yaml, json or toml)")
	once := flag.Bool("once", false, "print the dashboard and exit")
	watch := flag.Duration("watch", 15*time.Second, "API reachability poll interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *once, *watch, os.Stdout); err != nil {
		log.Fatalf("gymdash: %v", err)
	}
}

func run(ctx context.Context, configPath string, once bool, watch time.Duration, out io.Writer) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}

	d, err := dashboard.New(ctx, cfg, dashboard.WithNavigator(dashboard.NavigatorFunc(func(ctx context.Context, route string) {
		fmt.Fprintf(out, "session ended, go to %s\n", route)
	})))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Close(shutdownCtx); err != nil {
			log.Printf("gymdash: close: %v", err)
		}
	}()
	logger := d.Logger()

	if cfg.Credentials.Username != "" {
		if _, err := d.Login(ctx, cfg.Credentials.Username, cfg.Credentials.Password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	if err := printDashboard(ctx, d, out); err != nil {
		return err
	}
	if once {
		return nil
	}

	var srv *http.Server
	if cfg.Debug.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.Debug.Addr,
			Handler:           debugRouter(d.Health()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info(ctx, "debug server listening", observe.F("addr", cfg.Debug.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "debug server failed", observe.F("error", err))
			}
		}()
	}

	// Keep the dashboard's hooks mounted so their timers run.
	combined, err := d.ExercisesAndRoutines()
	if err != nil {
		return err
	}
	defer combined.Close()
	user, err := d.User()
	if err != nil {
		return err
	}
	defer user.Close()

	go d.Watch(ctx, watch)
	<-ctx.Done()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "debug server shutdown", observe.F("error", err))
		}
	}
	return nil
}

func debugRouter(agg *health.Aggregator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	health.Routes(r, agg)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func printDashboard(ctx context.Context, d *dashboard.Dashboard, out io.Writer) error {
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if u, ok := d.Session().User(); ok {
		q, err := d.User()
		if err != nil {
			return err
		}
		st, err := q.Wait(waitCtx)
		q.Close()
		if err != nil {
			return err
		}
		if st.HasData {
			u = st.Data
		}
		printUser(out, u)
	} else {
		fmt.Fprintln(out, "not logged in")
		return nil
	}

	c, err := d.ExercisesAndRoutines()
	if err != nil {
		return err
	}
	defer c.Close()
	st, err := c.Wait(waitCtx)
	if err != nil {
		return err
	}
	if st.Err != nil {
		return st.Err
	}
	fmt.Fprintf(out, "\nexercises (%d)\n", len(st.Exercises))
	for _, e := range st.Exercises {
		fmt.Fprintf(out, "  %-24s +%d str  +%d end  +%d flex\n", e.Name, e.StrengthImpact, e.EnduranceImpact, e.FlexibilityImpact)
	}
	fmt.Fprintf(out, "\nroutines (%d)\n", len(st.Routines))
	for _, r := range st.Routines {
		fmt.Fprintf(out, "  %-24s %d exercises\n", r.Name, len(r.Exercises))
	}
	return nil
}

func printUser(out io.Writer, u api.User) {
	fmt.Fprintf(out, "%s (@%s, %s)\n", u.Name, u.Username, u.Role)
	for _, s := range []api.Stat{api.StatStrength, api.StatEndurance, api.StatFlexibility} {
		fmt.Fprintf(out, "  %-12s %3d/%d\n", s, u.Stat(s), api.MaxStat)
	}
	switch {
	case u.AccessoryPurchased:
		fmt.Fprintf(out, "  accessory    %s\n", u.AccessoryName)
	case u.CanPurchase():
		fmt.Fprintln(out, "  accessory    available")
	}
}
