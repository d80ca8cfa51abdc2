// Command agent is a small operator CLI for the relay server: list the
// pending queue, acknowledge messages, and answer them.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mrkrexx/404AI/clients/go/relay"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("RELAY_URL")
	client := relay.NewClient(baseURL)
	client.Operator = os.Getenv("RELAY_OPERATOR")

	switch os.Args[1] {
	case "send":
		requireArgs(3, "send <text>")
		ack, err := client.Send(strings.Join(os.Args[2:], " "))
		exitOnError(err)
		fmt.Printf("sent %s\n", ack.MessageID)

	case "list":
		list, err := client.Messages()
		exitOnError(err)
		fmt.Printf("%d pending, %d unread\n", len(list.Messages), list.UnreadCount)
		for _, m := range list.Messages {
			marker := " "
			if !m.Read {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  %s\n", marker, m.ID, m.Timestamp.Format(time.RFC3339), m.Text)
		}

	case "read":
		requireArgs(3, "read <id>")
		exitOnError(client.MarkRead(os.Args[2]))
		fmt.Println("ok")

	case "respond":
		requireArgs(4, "respond <id> <text>")
		exitOnError(client.Respond(os.Args[2], strings.Join(os.Args[3:], " ")))
		fmt.Println("ok")

	case "watch":
		watch(client)

	default:
		usage()
		os.Exit(1)
	}
}

// watch polls the queue and prompts for a reply to each new message.
func watch(client *relay.Client) {
	seen := make(map[string]bool)
	stdin := bufio.NewReader(os.Stdin)

	for {
		list, err := client.Messages()
		if err != nil {
			fmt.Fprintln(os.Stderr, "poll failed:", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, m := range list.Messages {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true

			fmt.Printf("\n[%s] %s\n> ", m.Timestamp.Format("15:04"), m.Text)
			_ = client.MarkRead(m.ID)

			reply, err := stdin.ReadString('\n')
			if err != nil {
				return
			}
			reply = strings.TrimSpace(reply)
			if reply == "" {
				continue
			}
			if err := client.Respond(m.ID, reply); err != nil {
				fmt.Fprintln(os.Stderr, "respond failed:", err)
			}
		}

		time.Sleep(time.Second)
	}
}

func requireArgs(n int, form string) {
	if len(os.Args) < n {
		fmt.Fprintf(os.Stderr, "usage: agent %s\n", form)
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`404AI relay operator CLI

Usage:
  agent send <text>          post a message as the public agent
  agent list                 show the pending queue
  agent read <id>            mark a message as read
  agent respond <id> <text>  answer a message (evicts it from the queue)
  agent watch                poll and answer interactively

Environment:
  RELAY_URL       relay server base URL (default http://localhost:3000)
  RELAY_OPERATOR  operator name attached to responses`)
}
