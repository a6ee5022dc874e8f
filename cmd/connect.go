package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/luma/obnet/internal/env"
	"github.com/luma/obnet/internal/status"
	"github.com/luma/obnet/session"
	"github.com/luma/obnet/transport"
)

var (
	// The obby server to connect to
	host string

	// The port the obby server listens on
	port int

	// The port to serve debug HTTP requests on
	httpPort string

	// Nickname to join with. Falls back to OBNET_NICK.
	nick string

	// Join color as rrggbb hex. Falls back to OBNET_COLOR.
	color string
)

func init() {
	flags := ConnectCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "a", "localhost", "The obby server to connect to")
	flags.IntVarP(&port, "port", "p", 6522, "The port the obby server listens on")
	flags.StringVar(&httpPort, "http-port", "7362", "The port to serve debug HTTP requests on")
	flags.StringVarP(&nick, "nick", "n", "", "The nickname to join with")
	flags.StringVarP(&color, "color", "c", "808080", "The join color as rrggbb hex")
}

var ConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to an obby server",
	Long: `Connect to an obby server, join the chatroom, and mirror the
roster of users and documents.

Usage
	obnet connect -a obby.example.org -n alice

Lines typed on stdin are sent as chat messages. A few colon commands
are understood instead of being sent:

	:q                quit
	:subscribe NAME   subscribe to the named document
	:s RAW            send RAW verbatim as a protocol command
`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		log, err := env.MakeLogger(conf.LogLevel)
		if err != nil {
			return err
		}

		if nick == "" {
			nick = conf.Nick
		}
		if nick == "" {
			return errors.New("no nickname given, use --nick or OBNET_NICK")
		}
		if conf.Color != "" {
			color = conf.Color
		}

		sess, err := session.Dial(session.Options{
			Host: host,
			Port: port,
			Role: session.RoleClient,
			Sink: printEvents,
			Log:  log.Named("session"),
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		poller, err := transport.NewPoller(sess.Fd())
		if err != nil {
			return err
		}
		defer poller.Close()

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		router.GET("/status", func(c *gin.Context) {
			snapshot, err := status.Render(sess)
			if err != nil {
				c.String(http.StatusInternalServerError, err.Error())
				return
			}

			c.Data(http.StatusOK, "application/json", snapshot)
		})

		s := &http.Server{
			Addr:    net.JoinHostPort("127.0.0.1", httpPort),
			Handler: router,
		}

		// Stdin is read on its own goroutine because reads cannot be
		// cancelled. Each line wakes the pump loop out of its poll.
		input := make(chan string, 16)
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				input <- scanner.Text()
				_ = poller.Wake()
			}
			close(input)
		}()

		group, ctx := errgroup.WithContext(ctx)

		group.Go(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		group.Go(func() error {
			defer signalStop()
			return pumpLoop(ctx, sess, poller, input, log)
		})

		log.Info("Connected",
			zap.String("host", host),
			zap.Int("port", port),
			zap.String("nick", nick),
			zap.String("httpPort", httpPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		_ = poller.Wake()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		err = group.Wait()

		log.Info("Exiting")
		return err
	},
}

// pumpLoop drives the session until the connection faults, stdin gives a
// quit command, or the context is cancelled.
func pumpLoop(ctx context.Context, sess *session.Session, poller *transport.Poller, input <-chan string, log *zap.Logger) error {
	joined := false

	for {
		if _, err := poller.Wait(transport.DefaultPollTimeout * 20); err != nil {
			return err
		}

		if ctx.Err() != nil {
			return nil
		}

	drain:
		for {
			select {
			case line, ok := <-input:
				if !ok {
					return nil
				}
				if quit := handleInput(sess, line); quit {
					return nil
				}
			default:
				break drain
			}
		}

		sess.Pump()

		// The server lets clients in once the encryption exchange is
		// settled; join exactly once from there.
		if !joined && sess.State() >= session.StateShookHands && sess.State() != session.StateError {
			sess.Join(nick, color)
			joined = true
		}

		if sess.State() == session.StateError {
			log.Warn("Session faulted, disconnecting")
			return nil
		}
	}
}

// handleInput routes one stdin line. It reports whether the user asked
// to quit.
func handleInput(sess *session.Session, line string) bool {
	switch {
	case line == ":q":
		return true

	case strings.HasPrefix(line, ":subscribe "):
		sess.Subscribe(strings.TrimPrefix(line, ":subscribe "))

	case strings.HasPrefix(line, ":s "):
		sess.Enqueue([]byte(strings.TrimPrefix(line, ":s ") + "\n"))

	case line != "":
		sess.Say(line)
	}

	return false
}

// printEvents writes engine notifications to stdout in an irc-ish style.
func printEvents(event session.Event) {
	switch event.Kind {
	case session.EventChatMessage:
		fmt.Printf("<%s> %s\n", event.User, event.Message)
	case session.EventUserJoined:
		fmt.Printf("--> %s joined\n", event.User)
	case session.EventUserParted:
		fmt.Printf("<-- %s left\n", event.User)
	case session.EventDocumentKnown:
		fmt.Printf("=== document %q\n", event.Document)
	case session.EventDocumentOpening:
		fmt.Printf("=== opening %q (%d bytes)\n", event.Document, event.Length)
	case session.EventDocumentChunk:
		fmt.Print(event.Message)
	case session.EventDiagnostic:
		fmt.Printf("!!! %s\n", event.Message)
	}
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}
