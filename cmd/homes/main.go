// Command homes is a terminal client for the Premium Homes API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"premium-homes/internal/client"
	"premium-homes/internal/models"
	"premium-homes/internal/search"
	"premium-homes/internal/state"
)

func usage() {
	fmt.Fprintf(os.Stderr, `homes CLI
Usage:
  homes [-api URL] [-session file] [-v] <cmd> [args]

Commands:
  list      [-q text] [-type T] [-tx sale|rent] [-city C] [-bedrooms N] [-apt 2+1]
            [-min P] [-max P] [-sort newest|price-low|price-high]
  search    same flags as list, filtered by the server
  show      -id <id>
  cities
  login     -u <username> -p <password>       (saves session)
  register  -u <username> -p <password> -name <name> -email <email> [-city C] [-mobile M]
  whoami                                      (verifies the saved session)
  logout
  create    -file <listing.json|->
  update    -id <id> -file <listing.json|->
  delete    -id <id>
  agents
  upload    <image> [image...]
`)
	os.Exit(2)
}

type app struct {
	api        *client.Client
	session    *state.SessionController
	properties *state.PropertyController
}

func main() {
	apiURL := flag.String("api", getEnv("HOMES_API", client.DefaultBaseURL), "API base URL")
	sessionPath := flag.String("session", "", "session file (default $XDG_CONFIG_HOME/premium-homes/session.json)")
	verbose := flag.Bool("v", false, "log requests to stderr")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	logger := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	a := newApp(*apiURL, state.NewFileStorage(*sessionPath), logger)

	switch cmd {
	case "list":
		criteria := criteriaFlags("list", args)
		if err := a.properties.Fetch(ctx); err != nil {
			fail(err)
		}
		printJSON(search.View(a.properties.Store().State().Properties, criteria))

	case "search":
		criteria := criteriaFlags("search", args)
		properties, err := a.api.SearchProperties(ctx, criteria)
		if err != nil {
			fail(err)
		}
		printJSON(properties)

	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		id := fs.Int("id", 0, "property id")
		_ = fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		p, err := a.properties.Select(ctx, *id)
		if err != nil {
			fail(err)
		}
		printJSON(p)

	case "cities":
		if err := a.properties.Fetch(ctx); err != nil {
			fail(err)
		}
		printJSON(search.Cities(a.properties.Store().State().Properties))

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if err := a.session.Login(ctx, *u, *p); err != nil {
			fmt.Fprintln(os.Stderr, a.session.State().Error)
			os.Exit(1)
		}
		printJSON(a.session.State().User)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		var req models.RegisterRequest
		fs.StringVar(&req.Username, "u", "", "username")
		fs.StringVar(&req.Password, "p", "", "password")
		fs.StringVar(&req.Name, "name", "", "agent name")
		fs.StringVar(&req.Email, "email", "", "agent email")
		fs.StringVar(&req.Title, "title", "", "agent title")
		fs.StringVar(&req.City, "city", "", "agent city")
		fs.StringVar(&req.Mobile, "mobile", "", "agent phone")
		_ = fs.Parse(args)
		if err := a.session.Register(ctx, req); err != nil {
			fmt.Fprintln(os.Stderr, a.session.State().Error)
			os.Exit(1)
		}
		st := a.session.State()
		printJSON(map[string]any{"user": st.User, "agent": st.Agent})

	case "whoami":
		a.session.Bootstrap(ctx)
		a.session.Wait()
		st := a.session.State()
		if !st.Authenticated() {
			fmt.Fprintln(os.Stderr, "not logged in")
			os.Exit(1)
		}
		printJSON(st.User)

	case "logout":
		a.session.Logout()
		fmt.Println("logged out")

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		file := fs.String("file", "-", "listing JSON file, - for stdin")
		_ = fs.Parse(args)
		p := readListing(*file)
		a.requireSession(ctx)
		created, err := a.properties.Create(ctx, p)
		if err != nil {
			os.Exit(1)
		}
		a.properties.Wait()
		printJSON(created)

	case "update":
		fs := flag.NewFlagSet("update", flag.ExitOnError)
		id := fs.Int("id", 0, "property id")
		file := fs.String("file", "-", "listing JSON file, - for stdin")
		_ = fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		p := readListing(*file)
		p.ID = *id
		a.requireSession(ctx)
		updated, err := a.properties.Update(ctx, p)
		if err != nil {
			os.Exit(1)
		}
		a.properties.Wait()
		printJSON(updated)

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		id := fs.Int("id", 0, "property id")
		_ = fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		a.requireSession(ctx)
		if err := a.properties.Delete(ctx, *id); err != nil {
			os.Exit(1)
		}
		a.properties.Wait()
		fmt.Println("deleted", *id)

	case "agents":
		printJSON(a.api.ListAgents(ctx))

	case "upload":
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "need at least one image")
			os.Exit(1)
		}
		a.requireSession(ctx)
		files := make([]client.File, 0, len(args))
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				fail(err)
			}
			defer f.Close()
			files = append(files, client.File{Name: filepath.Base(path), Data: f})
		}
		var urls []string
		var err error
		if len(files) == 1 {
			var u string
			u, err = a.api.UploadImage(ctx, files[0])
			urls = []string{u}
		} else {
			urls, err = a.api.UploadImages(ctx, files)
		}
		if err != nil {
			fail(err)
		}
		printJSON(urls)

	default:
		usage()
	}
}

func newApp(apiURL string, storage state.SessionStorage, logger *zap.Logger) *app {
	api := client.New(apiURL)
	session := state.NewSessionController(api, storage, logger)
	api.SetTokenSource(session)

	alert := state.AlertFunc(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	return &app{
		api:        api,
		session:    session,
		properties: state.NewPropertyController(api, state.NewStore(), alert, logger),
	}
}

// requireSession restores the saved login and exits when there is none or
// the server rejects it.
func (a *app) requireSession(ctx context.Context) {
	a.session.Bootstrap(ctx)
	a.session.Wait()
	if !a.session.State().Authenticated() {
		fmt.Fprintln(os.Stderr, "login required (homes login -u <username> -p <password>)")
		os.Exit(1)
	}
}

func criteriaFlags(name string, args []string) search.Criteria {
	c := search.DefaultCriteria()
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&c.SearchQuery, "q", "", "free-text query")
	fs.StringVar(&c.PropertyType, "type", search.All, "apartment, villa, office or land")
	fs.StringVar(&c.TransactionType, "tx", search.All, "sale or rent")
	fs.StringVar(&c.City, "city", search.All, "city")
	fs.StringVar(&c.Bedrooms, "bedrooms", search.All, "exact bedroom count")
	fs.StringVar(&c.ApartmentType, "apt", search.All, "apartment layout such as 2+1")
	minPrice := fs.String("min", "", "minimum price")
	maxPrice := fs.String("max", "", "maximum price")
	sortBy := fs.String("sort", string(search.SortNewest), "newest, price-low or price-high")
	_ = fs.Parse(args)

	c.MinPrice = parseFloat(*minPrice)
	c.MaxPrice = parseFloat(*maxPrice)
	c.SortBy = search.SortBy(*sortBy)
	return c
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad number %q\n", s)
		os.Exit(1)
	}
	return &f
}

func readListing(path string) *models.Property {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		fail(err)
	}
	var p models.Property
	if err := json.Unmarshal(b, &p); err != nil {
		fail(fmt.Errorf("parse listing: %w", err))
	}
	return &p
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func fail(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "api error: status=%d msg=%s\n", apiErr.Status, apiErr.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
