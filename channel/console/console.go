// Package console is the embedded terminal front end, wired to the core
// in-process. The terminal operator is treated as a private administrator
// channel with no content restriction.
package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/kumabot/kumabot/bot/model"
	"github.com/kumabot/kumabot/channel"
	"github.com/kumabot/kumabot/pkg/safe"
)

const channelID = "console"

type Console struct {
	username string
	recvCh   chan *model.Request
	sendCh   chan *model.Response
}

var _ channel.Adapter = (*Console)(nil)

func New() *Console {
	username := "operator"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	return &Console{
		username: username,
		recvCh:   make(chan *model.Request, 1),
		sendCh:   make(chan *model.Response, 1),
	}
}

func (c *Console) Source() model.SourceSystem { return model.SourceTerminal }

func (c *Console) ReceiveChan() <-chan *model.Request { return c.recvCh }

func (c *Console) SendChan() chan<- *model.Response { return c.sendCh }

func (c *Console) Start(ctx context.Context) error {
	safe.Go(func() { c.readLoop(ctx) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp := <-c.sendCh:
			c.print(resp)
		}
	}
}

func (c *Console) readLoop(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		req := model.NewRequest(model.SourceTerminal, c.username, line, model.AuthorityAdministrator)
		req.ChannelID = channelID
		req.ChannelIsPrivate = true
		req.ChannelIsNSFW = true

		select {
		case <-ctx.Done():
			return
		case c.recvCh <- req:
		}
	}
}

func (c *Console) print(resp *model.Response) {
	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	if resp.Image != nil {
		fmt.Printf("%s\n%s\n%s\n", resp.Image.Description, resp.Image.URL, resp.Image.Source)
	}
}
