package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	global := flag.NewFlagSet("recipehub", flag.ExitOnError)
	baseURL := global.String("api", envOr("RECIPEHUB_API", defaultBaseURL), "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	rest := args[1:]
	sub := ""
	if len(rest) > 0 {
		sub = rest[0]
		rest = rest[1:]
	}

	switch cmd {
	case "login":
		handleLogin(ctx, *baseURL, *tokenPath, args[1:])
	case "logout":
		client := newAPIClient(*baseURL, loadToken(*tokenPath))
		if err := client.Logout(ctx); err != nil {
			log.Printf("server logout: %v", err)
		}
		if err := clearToken(*tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	case "whoami":
		client := newAPIClient(*baseURL, mustToken(*tokenPath))
		u, err := client.Me(ctx)
		if err != nil {
			log.Fatalf("whoami: %v", err)
		}
		printJSON(u)
	case "recipes":
		handleRecipes(ctx, *baseURL, *tokenPath, sub, rest)
	case "blog":
		handleBlog(ctx, *baseURL, *tokenPath, sub, rest)
	case "hash-password":
		handleHashPassword(args[1:])
	case "watch":
		handleWatch(*baseURL, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleLogin(ctx context.Context, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "admin username")
	password := fs.String("password", os.Getenv("RECIPEHUB_PASSWORD"), "password (or RECIPEHUB_PASSWORD)")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		log.Fatal("username and password are required")
	}

	token, resp, err := newAPIClient(baseURL, "").Login(ctx, *username, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	td := tokenData{Token: token, Username: resp.User.Username, ExpiresAt: resp.ExpiresAt}
	if err := saveToken(tokenPath, td); err != nil {
		log.Fatalf("save token: %v", err)
	}
	fmt.Printf("logged in as %s (%s), session expires %s\n",
		resp.User.Username, resp.User.Role, resp.ExpiresAt.Local().Format(time.RFC1123))
}

func handleRecipes(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("recipes list", flag.ExitOnError)
		p := listParams{}
		fs.StringVar(&p.Q, "q", "", "search title and description")
		fs.StringVar(&p.Category, "category", "", "category filter")
		fs.StringVar(&p.Tag, "tag", "", "tag or dietary filter")
		fs.IntVar(&p.Limit, "limit", 20, "page size")
		fs.IntVar(&p.Offset, "offset", 0, "offset")
		_ = fs.Parse(args)

		page, err := newAPIClient(baseURL, "").ListRecipes(ctx, p)
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		fmt.Printf("%d recipes (showing %d from offset %d)\n", page.Total, len(page.Items), page.Offset)
		for _, r := range page.Items {
			fmt.Printf("  %-36s %-12s %-8s %s\n", r.Slug, r.Category, r.Difficulty, r.Title)
		}
	case "get":
		slug := requireSlug("recipes get", args)
		r, err := newAPIClient(baseURL, "").GetRecipe(ctx, slug)
		if err != nil {
			log.Fatalf("get failed: %v", err)
		}
		printJSON(r)
	case "create":
		body := readJSONFile("recipes create", args)
		r, err := newAPIClient(baseURL, mustToken(tokenPath)).CreateRecipe(ctx, body)
		if err != nil {
			log.Fatalf("create failed: %v", err)
		}
		fmt.Printf("created %s\n", r.Slug)
	case "update":
		body := readJSONFile("recipes update", args)
		if s, _ := body["slug"].(string); s == "" {
			log.Fatal(`update file must include "slug"`)
		}
		r, err := newAPIClient(baseURL, mustToken(tokenPath)).UpdateRecipe(ctx, body)
		if err != nil {
			log.Fatalf("update failed: %v", err)
		}
		fmt.Printf("updated %s\n", r.Slug)
	case "delete":
		slug := requireSlug("recipes delete", args)
		if err := newAPIClient(baseURL, mustToken(tokenPath)).DeleteRecipe(ctx, slug); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		fmt.Printf("deleted %s\n", slug)
	case "review":
		fs := flag.NewFlagSet("recipes review", flag.ExitOnError)
		slug := fs.String("slug", "", "recipe slug")
		user := fs.String("user", "", "reviewer id")
		rating := fs.Int("rating", 0, "rating 1-5")
		comment := fs.String("comment", "", "comment")
		_ = fs.Parse(args)
		if *slug == "" || *user == "" {
			log.Fatal("slug and user are required")
		}
		rv, err := newAPIClient(baseURL, "").AddReview(ctx, *slug, *user, *rating, *comment)
		if err != nil {
			log.Fatalf("review failed: %v", err)
		}
		printJSON(rv)
	default:
		log.Fatal("usage: recipehub recipes <list|get|create|update|delete|review>")
	}
}

func handleBlog(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("blog list", flag.ExitOnError)
		p := listParams{}
		fs.StringVar(&p.Q, "q", "", "search title, excerpt and content")
		fs.StringVar(&p.Tag, "tag", "", "tag filter")
		fs.StringVar(&p.Status, "status", "", "draft or published (with -all)")
		fs.IntVar(&p.Limit, "limit", 20, "page size")
		fs.IntVar(&p.Offset, "offset", 0, "offset")
		all := fs.Bool("all", false, "include drafts (requires login)")
		_ = fs.Parse(args)

		token := ""
		if *all {
			token = mustToken(tokenPath)
		}
		page, err := newAPIClient(baseURL, token).ListPosts(ctx, p, *all)
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		fmt.Printf("%d posts\n", page.Total)
		for _, post := range page.Items {
			fmt.Printf("  %-36s %-10s %s\n", post.Slug, post.Status, post.Title)
		}
	case "get":
		slug := requireSlug("blog get", args)
		post, err := newAPIClient(baseURL, "").GetPost(ctx, slug)
		if err != nil {
			log.Fatalf("get failed: %v", err)
		}
		fmt.Printf("# %s\n\n%s\n", post.Title, post.Content)
	default:
		log.Fatal("usage: recipehub blog <list|get>")
	}
}

// handleHashPassword prints a bcrypt hash for the credentials file.
func handleHashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	password := fs.String("password", os.Getenv("RECIPEHUB_PASSWORD"), "password to hash (or RECIPEHUB_PASSWORD)")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = fs.Parse(args)
	if *password == "" {
		log.Fatal("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), *cost)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	fmt.Println(string(hash))
}

// handleWatch prints change feed events until interrupted. With -tcp it
// reads the raw newline-delimited feed instead and reconnects on failure.
func handleWatch(baseURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	tcpAddr := fs.String("tcp", "", "TCP change feed address (host:port)")
	_ = fs.Parse(args)

	if *tcpAddr != "" {
		for {
			if err := watchTCP(*tcpAddr, os.Stdout); err != nil {
				log.Printf("change feed disconnected: %v", err)
			}
			time.Sleep(time.Second)
		}
	}

	wsURL, err := websocketURL(baseURL, "/ws")
	if err != nil {
		log.Fatalf("invalid base url: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("connect %s: %v", wsURL, err)
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	fmt.Printf("watching %s (ctrl-c to stop)\n", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fmt.Print(formatEvent(msg))
	}
}

// watchTCP copies formatted events from one TCP session to w until it ends.
func watchTCP(addr string, w io.Writer) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Fprint(w, formatEvent(sc.Bytes()))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func formatEvent(msg []byte) string {
	var ev struct {
		Type    string    `json:"type"`
		Slug    string    `json:"slug"`
		OldSlug string    `json:"oldSlug"`
		Actor   string    `json:"actor"`
		At      time.Time `json:"at"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Slug == "" {
		return strings.TrimRight(string(msg), "\n") + "\n"
	}
	line := fmt.Sprintf("%s %-16s %s", ev.At.Local().Format("15:04:05"), ev.Type, ev.Slug)
	if ev.OldSlug != "" {
		line += " (was " + ev.OldSlug + ")"
	}
	if ev.Actor != "" {
		line += " by " + ev.Actor
	}
	return line + "\n"
}

func requireSlug(name string, args []string) string {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	slug := fs.String("slug", "", "slug")
	_ = fs.Parse(args)
	if *slug == "" {
		log.Fatal("slug is required")
	}
	return *slug
}

func readJSONFile(name string, args []string) map[string]any {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	file := fs.String("file", "", "JSON file ('-' for stdin)")
	_ = fs.Parse(args)
	if *file == "" {
		log.Fatal("file is required")
	}

	var data []byte
	var err error
	if *file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*file)
	}
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}
	return body
}

func mustToken(path string) string {
	token := loadToken(path)
	if token == "" {
		log.Fatal("no valid session, run: recipehub login -username <name>")
	}
	return token
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("recipehub [-api URL] [-token PATH] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  login -username NAME [-password PW]")
	fmt.Println("  logout")
	fmt.Println("  whoami")
	fmt.Println("  recipes list|get|create|update|delete|review")
	fmt.Println("  blog list|get")
	fmt.Println("  hash-password -password PW")
	fmt.Println("  watch [-tcp HOST:PORT]")
}
