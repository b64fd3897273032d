package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var groceries = []string{
	"Milk", "Bread", "Eggs", "Butter", "Cheese", "Apples", "Bananas", "Rice",
	"Pasta", "Tomatoes", "Onions", "Coffee", "Tea", "Yogurt", "Chicken",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "shoppers":
		shoppersCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Shopping list simulator - development tool for exercising live updates

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Create a list and fill it with items
  watch     Subscribe to a list and print every event it receives
  shoppers  Run several users editing one list concurrently while watching it
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Create a list with 10 items
  simulator populate --items=10

  # Watch list 3 for changes
  simulator watch --list=3

  # Five shoppers adding and ticking off items on list 3
  simulator shoppers --list=3 --count=5`)
}

func fail(format string, args ...interface{}) {
	fmt.Printf("FAILED\n  Error: "+format+"\n", args...)
	os.Exit(1)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	name := fs.String("name", "Weekly groceries", "List name")
	items := fs.Int("items", 8, "Number of items to add")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Print("Creating user... ")
	user, token, err := client.RegisterUser("shopper")
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (user: %s)\n", user.Username)

	fmt.Print("Creating list... ")
	list, err := client.CreateList(token, *name)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (id: %d)\n", list.ID)

	for i := 0; i < *items; i++ {
		itemName := groceries[i%len(groceries)]
		if _, err := client.AddItem(token, list.ID, itemName, 1+rand.Intn(3)); err != nil {
			fail("%v", err)
		}
		fmt.Printf("  [%d/%d] %s\n", i+1, *items, itemName)
	}

	fmt.Println()
	fmt.Printf("  Watch it with: simulator watch --list=%d\n", list.ID)
}

// watch subscribes to listID and prints events until stop is closed.
func watch(client *APIClient, token string, listID uint, stop <-chan struct{}) error {
	conn, _, err := websocket.DefaultDialer.Dial(client.WebSocketURL(token), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	subscribe := map[string]interface{}{
		"type":      "subscribe",
		"payload":   map[string]uint{"listId": listID},
		"timestamp": time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		<-stop
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-stop:
				return nil
			default:
				return fmt.Errorf("read: %w", err)
			}
		}
		fmt.Printf("  %-14s %s\n", msg.Type, string(msg.Payload))
	}
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	listID := fs.Uint("list", 0, "List ID to watch")
	fs.Parse(args)

	if *listID == 0 {
		fmt.Println("Error: --list is required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	_, token, err := client.RegisterUser("watcher")
	if err != nil {
		fail("%v", err)
	}

	stop := make(chan struct{})
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		close(stop)
	}()

	fmt.Printf("Watching list %d (Ctrl+C to stop)\n", *listID)
	if err := watch(client, token, uint(*listID), stop); err != nil {
		fail("%v", err)
	}
}

func shoppersCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("shoppers", flag.ExitOnError)
	listID := fs.Uint("list", 0, "List ID to edit (a new list is created when 0)")
	count := fs.Int("count", 3, "Number of concurrent shoppers")
	rounds := fs.Int("rounds", 5, "Items each shopper adds")
	fs.Parse(args)

	if *count < 1 {
		fmt.Println("Error: --count must be at least 1")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	_, watcherToken, err := client.RegisterUser("watcher")
	if err != nil {
		fail("%v", err)
	}

	id := uint(*listID)
	if id == 0 {
		list, err := client.CreateList(watcherToken, "Shared shop")
		if err != nil {
			fail("%v", err)
		}
		id = list.ID
	}

	stop := make(chan struct{})
	watchDone := make(chan error, 1)
	go func() { watchDone <- watch(client, watcherToken, id, stop) }()
	// Let the subscription land before the first write.
	time.Sleep(200 * time.Millisecond)

	fmt.Printf("Running %d shoppers on list %d\n", *count, id)

	var wg sync.WaitGroup
	for i := 0; i < *count; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, token, err := client.RegisterUser(fmt.Sprintf("shopper%d", n))
			if err != nil {
				fmt.Printf("  shopper %d: %v\n", n, err)
				return
			}
			for r := 0; r < *rounds; r++ {
				item, err := client.AddItem(token, id, groceries[rand.Intn(len(groceries))], 1)
				if err != nil {
					fmt.Printf("  shopper %d: %v\n", n, err)
					return
				}
				if rand.Intn(2) == 0 {
					if err := client.CompleteItem(token, id, item.ID); err != nil {
						fmt.Printf("  shopper %d: %v\n", n, err)
						return
					}
				}
			}
		}(i + 1)
	}
	wg.Wait()

	time.Sleep(500 * time.Millisecond)
	close(stop)
	if err := <-watchDone; err != nil {
		fail("%v", err)
	}

	list, err := client.GetList(watcherToken, id)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("\nList %d now has %d items\n", id, len(list.Items))
}
