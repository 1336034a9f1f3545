package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adityapw/fittrack/internal/apiclient"

	log "github.com/sirupsen/logrus"
)

// fitcli is a small terminal companion for the fittrack backend. It
// talks to the API when the server is up and falls back to the local
// mirror when it is not, marking such results with "(offline)".

const defaultAPIBaseURL = "http://localhost:9000/api"

func main() {
	apiBaseURL := flag.String("api", defaultAPIBaseURL, "fittrack API base URL")
	storePath := flag.String("store", "", "path to the local mirror file (defaults to ~/.fittrack/store.json)")
	flag.Parse()

	log.SetLevel(log.WarnLevel)

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	client, err := newClient(*apiBaseURL, *storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	args := flag.Args()

	if err := runCommand(ctx, client, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newClient(apiBaseURL, storePath string) (*apiclient.Client, error) {
	if storePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		storePath = filepath.Join(homeDir, ".fittrack", "store.json")
	}

	store, err := apiclient.OpenStore(storePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	return apiclient.NewClient(apiclient.NewClientParams{
		BaseURL: apiBaseURL,
		Store:   store,
	}), nil
}

func runCommand(ctx context.Context, client *apiclient.Client, command string, args []string) error {
	switch command {
	case "list":
		return listWorkouts(ctx, client)
	case "add":
		return addWorkout(ctx, client, args)
	case "delete":
		return deleteWorkout(ctx, client, args)
	case "stats":
		return showStats(ctx, client)
	case "schedule":
		return showSchedule(ctx, client, args)
	case "login":
		return login(ctx, client, args)
	case "logout":
		return client.Logout()
	case "whoami":
		return whoami(ctx, client)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: fitcli [flags] <command>

commands:
  list                           list workouts
  add <exercise> <duration> <date> [calories]
                                 add a workout (date: YYYY-MM-DD)
  delete <id>                    delete a workout
  stats                          show workout stats
  schedule [day]                 show the weekly schedule, or one day
  login <email> <password>       log in and cache the session
  logout                         drop the cached session
  whoami                         show the logged-in profile`)
}

func offlineTag(offline bool) string {
	if offline {
		return " (offline)"
	}
	return ""
}

func listWorkouts(ctx context.Context, client *apiclient.Client) error {
	allWorkouts, offline, err := client.Workouts(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("workouts%s:\n", offlineTag(offline))
	if len(allWorkouts) == 0 {
		fmt.Println("  none yet")
		return nil
	}
	for _, w := range allWorkouts {
		fmt.Printf("  [%s] %s  %s  %dmin  %dkcal", w.ID, w.Date, w.Exercise, w.Duration, w.Calories)
		if w.Notes != "" {
			fmt.Printf("  (%s)", w.Notes)
		}
		fmt.Println()
	}
	return nil
}

func addWorkout(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("add needs: <exercise> <duration> <date> [calories]")
	}

	req := apiclient.CreateWorkoutRequest{
		Exercise: args[0],
		Date:     args[2],
	}
	if _, err := fmt.Sscanf(args[1], "%d", &req.Duration); err != nil {
		return fmt.Errorf("duration must be a number of minutes: %w", err)
	}
	if len(args) > 3 {
		if _, err := fmt.Sscanf(args[3], "%d", &req.Calories); err != nil {
			return fmt.Errorf("calories must be a number: %w", err)
		}
	}

	workout, offline, err := client.CreateWorkout(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("added workout [%s]%s\n", workout.ID, offlineTag(offline))
	return nil
}

func deleteWorkout(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete needs: <id>")
	}

	removed, offline, err := client.DeleteWorkout(ctx, apiclient.WorkoutID(args[0]))
	if err != nil {
		return err
	}
	fmt.Printf("deleted workout [%s] %s%s\n", removed.ID, removed.Exercise, offlineTag(offline))
	return nil
}

func showStats(ctx context.Context, client *apiclient.Client) error {
	stats, offline, err := client.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("stats%s:\n", offlineTag(offline))
	fmt.Printf("  workouts:       %d\n", stats.TotalWorkout)
	fmt.Printf("  total duration: %d min\n", stats.TotalDuration)
	fmt.Printf("  total calories: %d kcal\n", stats.TotalCalories)
	fmt.Printf("  avg duration:   %d min\n", stats.AvgDuration)
	fmt.Printf("  this week:      %d\n", stats.ThisWeek)
	return nil
}

func showSchedule(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) > 0 {
		entry, offline, err := client.ScheduleByDay(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s / %s%s\n", entry.Day, entry.DayEn, offlineTag(offline))
		fmt.Printf("  %s\n", entry.Workout)
		for i, exercise := range entry.Exercises {
			fmt.Printf("  %d. %s  %dx%s\n", i+1, exercise.Name, exercise.Sets, exercise.Reps)
		}
		if entry.Tips != "" {
			fmt.Printf("  tip: %s\n", entry.Tips)
		}
		return nil
	}

	week, offline, err := client.Schedules(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("weekly schedule%s:\n", offlineTag(offline))
	for _, entry := range week {
		fmt.Printf("  %-10s %s\n", entry.Day, entry.Workout)
	}
	return nil
}

func login(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("login needs: <email> <password>")
	}

	user, err := client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func whoami(ctx context.Context, client *apiclient.Client) error {
	if !client.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		if cached := client.CachedProfile(); cached != nil {
			fmt.Printf("%s <%s> (offline)\n", cached.Name, cached.Email)
			return nil
		}
		return err
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}
