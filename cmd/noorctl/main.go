package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hfarah/noor/internal/config"
	"github.com/hfarah/noor/internal/profile"
)

func main() {
	addrFlag := flag.String("addr", "", "daemon address (overrides config http_addr)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	cfg := config.LoadOrDefault(profile.ConfigPath())
	addr := cfg.HTTPAddr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := &client{base: "http://" + addr, http: &http.Client{Timeout: 10 * time.Second}}

	switch args[0] {
	case "status":
		cmdStatus(c, *jsonFlag)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: noorctl search <query> [corpus]")
			os.Exit(1)
		}
		corpusName := ""
		if len(args) >= 3 {
			corpusName = args[2]
		}
		cmdSearch(c, args[1], corpusName, *jsonFlag)
	case "refresh":
		cmdRefresh(c, *jsonFlag)
	case "chats":
		cmdChats(c, *jsonFlag)
	case "open":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: noorctl open <party>")
			os.Exit(1)
		}
		cmdOpen(c, args[1], *jsonFlag)
	case "send":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: noorctl send <conversation-id> <text>")
			os.Exit(1)
		}
		cmdSend(c, args[1], args[2], *jsonFlag)
	case "messages":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: noorctl messages <conversation-id>")
			os.Exit(1)
		}
		cmdMessages(c, args[1], *jsonFlag)
	case "read":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: noorctl read <conversation-id>")
			os.Exit(1)
		}
		cmdRead(c, args[1])
	case "unread":
		cmdUnread(c, *jsonFlag)
	case "bookmarks":
		cmdBookmarks(c, *jsonFlag)
	case "bookmark":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: noorctl bookmark <key>")
			os.Exit(1)
		}
		cmdBookmarkToggle(c, args[1], *jsonFlag)
	case "stats":
		cmdStats(c, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: noorctl [--addr <host:port>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                  Show daemon status")
	fmt.Fprintln(os.Stderr, "  search <query> [corpus] Search a corpus (default quran)")
	fmt.Fprintln(os.Stderr, "  refresh                 Reload corpora from disk")
	fmt.Fprintln(os.Stderr, "  chats                   List conversations")
	fmt.Fprintln(os.Stderr, "  open <party>            Open (or find) a conversation")
	fmt.Fprintln(os.Stderr, "  send <conv> <text>      Send a message")
	fmt.Fprintln(os.Stderr, "  messages <conv>         List messages in a conversation")
	fmt.Fprintln(os.Stderr, "  read <conv>             Mark a conversation as read")
	fmt.Fprintln(os.Stderr, "  unread                  Show unread total")
	fmt.Fprintln(os.Stderr, "  bookmarks               List bookmarks")
	fmt.Fprintln(os.Stderr, "  bookmark <key>          Toggle a bookmark")
	fmt.Fprintln(os.Stderr, "  stats                   Show reading stats")
}

type client struct {
	base string
	http *http.Client
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *client) post(path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s", e.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdStatus(c *client, jsonOut bool) {
	var resp struct {
		Status  string         `json:"status"`
		Corpora map[string]int `json:"corpora"`
	}
	if err := c.get("/status", &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Status: %s\n", resp.Status)
	for name, n := range resp.Corpora {
		fmt.Printf("  %-8s %d records\n", name, n)
	}
}

func cmdSearch(c *client, query, corpusName string, jsonOut bool) {
	q := url.Values{"q": {query}}
	if corpusName != "" {
		q.Set("corpus", corpusName)
	}
	var resp struct {
		Count   int `json:"count"`
		Results []struct {
			Record struct {
				Key         string `json:"key"`
				Arabic      string `json:"arabic"`
				Translation string `json:"translation"`
			} `json:"record"`
		} `json:"results"`
	}
	if err := c.get("/search?"+q.Encode(), &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if resp.Count == 0 {
		fmt.Println("No results.")
		return
	}
	for _, r := range resp.Results {
		fmt.Printf("%-10s %s\n", r.Record.Key, r.Record.Arabic)
		if r.Record.Translation != "" {
			fmt.Printf("           %s\n", r.Record.Translation)
		}
	}
}

func cmdRefresh(c *client, jsonOut bool) {
	var resp struct {
		Refreshed bool `json:"refreshed"`
	}
	if err := c.post("/corpus/refresh", map[string]string{}, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Println("Corpora refreshed.")
}

func cmdChats(c *client, jsonOut bool) {
	var resp struct {
		Conversations []struct {
			ID            string         `json:"id"`
			Participants  []string       `json:"participants"`
			UnreadCounts  map[string]int `json:"unreadCounts"`
			LastMessageAt int64          `json:"lastMessageAt"`
		} `json:"conversations"`
	}
	if err := c.get("/conversations", &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Conversations) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, conv := range resp.Conversations {
		when := ""
		if conv.LastMessageAt > 0 {
			when = time.UnixMilli(conv.LastMessageAt).Format("2006-01-02 15:04")
		}
		fmt.Printf("%-36s %v %s\n", conv.ID, conv.Participants, when)
	}
}

func cmdOpen(c *client, party string, jsonOut bool) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post("/conversations", map[string]string{"party": party}, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Conversation: %s\n", resp.ID)
}

func cmdSend(c *client, convID, text string, jsonOut bool) {
	var resp struct {
		ID        string `json:"id"`
		Timestamp int64  `json:"timestamp"`
	}
	body := map[string]string{"content": text, "type": "text"}
	if err := c.post("/conversations/"+convID+"/messages", body, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Sent %s\n", resp.ID)
}

func cmdMessages(c *client, convID string, jsonOut bool) {
	var resp struct {
		Messages []struct {
			SenderID  string `json:"senderId"`
			Content   string `json:"content"`
			Timestamp int64  `json:"timestamp"`
			Read      bool   `json:"read"`
		} `json:"messages"`
	}
	if err := c.get("/conversations/"+convID+"/messages", &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	for _, m := range resp.Messages {
		when := time.UnixMilli(m.Timestamp).Format("15:04")
		marker := " "
		if !m.Read {
			marker = "*"
		}
		fmt.Printf("%s %s %-24s %s\n", marker, when, m.SenderID, m.Content)
	}
}

func cmdRead(c *client, convID string) {
	if err := c.post("/conversations/"+convID+"/read", map[string]string{}, nil); err != nil {
		fail(err)
	}
	fmt.Println("Marked as read.")
}

func cmdUnread(c *client, jsonOut bool) {
	var resp struct {
		Unread int `json:"unread"`
	}
	if err := c.get("/unread", &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Unread: %d\n", resp.Unread)
}

func cmdBookmarks(c *client, jsonOut bool) {
	var resp struct {
		Bookmarks []string `json:"bookmarks"`
	}
	if err := c.get("/bookmarks", &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Bookmarks) == 0 {
		fmt.Println("No bookmarks.")
		return
	}
	for _, key := range resp.Bookmarks {
		fmt.Println(key)
	}
}

func cmdBookmarkToggle(c *client, key string, jsonOut bool) {
	var resp struct {
		Key        string `json:"key"`
		Bookmarked bool   `json:"bookmarked"`
	}
	if err := c.post("/bookmarks/toggle", map[string]string{"key": key}, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if resp.Bookmarked {
		fmt.Printf("Bookmarked %s\n", resp.Key)
	} else {
		fmt.Printf("Removed bookmark %s\n", resp.Key)
	}
}

func cmdStats(c *client, jsonOut bool) {
	var resp struct {
		VersesRead int    `json:"versesRead"`
		HadithRead int    `json:"hadithRead"`
		LastRead   string `json:"lastRead"`
		LastReadAt int64  `json:"lastReadAt"`
	}
	if err := c.get("/stats", &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Verses read: %d\n", resp.VersesRead)
	fmt.Printf("Hadith read: %d\n", resp.HadithRead)
	if resp.LastRead != "" {
		fmt.Printf("Last read:   %s (%s)\n", resp.LastRead,
			time.UnixMilli(resp.LastReadAt).Format("2006-01-02 15:04"))
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
