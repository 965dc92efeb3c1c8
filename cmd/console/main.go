// Command console is a terminal display client: it dials the queue stream of
// one room and renders every snapshot as a table, the way a waiting-room
// screen would.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/ws"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "queue server host:port")
	room := flag.String("room", "", "room to display (required)")
	status := flag.String("status", "", "comma-separated status filter, empty for the operational view")
	flag.Parse()

	if *room == "" {
		flag.Usage()
		os.Exit(2)
	}

	target := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/rooms/" + *room}
	if *status != "" {
		target.RawQuery = "status=" + url.QueryEscape(*status)
	}

	conn, _, err := websocket.DefaultDialer.Dial(target.String(), nil)
	if err != nil {
		log.Fatalf("Dial %s failed: %v", target.String(), err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	messages := make(chan ws.Message)
	go func() {
		defer close(messages)
		for {
			var message ws.Message
			if err := conn.ReadJSON(&message); err != nil {
				log.Printf("Connection lost: %v", err)
				return
			}
			messages <- message
		}
	}()

	for {
		select {
		case <-interrupt:
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case message, ok := <-messages:
			if !ok {
				return
			}
			render(message)
		}
	}
}

func render(message ws.Message) {
	// Whole-list replacement: redraw the screen from scratch.
	fmt.Print("\033[H\033[2J")

	header := fmt.Sprintf(" Room %s | version %d | %s ",
		message.RoomID, message.Version, time.Now().Format("15:04:05"))
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Pos", "Ticket", "Status", "Service", "Window"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, entry := range message.Entries {
		table.Append([]string{
			strconv.Itoa(entry.Position),
			entry.TicketNumber,
			renderStatus(entry.Status),
			entry.ServiceName,
			entry.ServicePoint,
		})
	}
	table.Render()
}

func renderStatus(status domain.Status) string {
	switch status {
	case domain.StatusCalled:
		return color.New(color.FgYellow).Render(string(status))
	case domain.StatusInService:
		return color.New(color.FgGreen).Render(string(status))
	default:
		return string(status)
	}
}
