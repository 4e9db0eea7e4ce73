package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/cartstore/internal/messaging/kafka"
	grpcsvc "github.com/vladislavdragonenkov/cartstore/internal/service/grpc"
)

const usage = `usage: cartctl [flags] <command> [args]

commands:
  get                        print the cart
  add <product-id>           add one unit of a product
  remove <product-id>        remove a product
  update <product-id> <n>    set product quantity
  watch                      stream cart events from Kafka
`

var errUsage = errors.New("invalid usage")

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	fs := flag.NewFlagSet("cartctl", flag.ExitOnError)
	addr := fs.String("addr", envOr("CART_GRPC_ADDR", "localhost:50051"), "cart service gRPC address")
	timeout := fs.Duration("timeout", 5*time.Second, "per-call timeout")
	brokers := fs.String("brokers", os.Getenv("KAFKA_BROKERS"), "kafka brokers for watch")
	topic := fs.String("topic", envOr("CART_EVENTS_TOPIC", kafka.TopicCartEvents), "cart events topic for watch")
	group := fs.String("group", "cartctl", "consumer group for watch")
	fs.Usage = func() {
		_, _ = fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := fs.Args()
	if len(args) > 0 && args[0] == "watch" {
		if err := watch(ctx, *brokers, *group, *topic, os.Stdout); err != nil {
			log.WithError(err).Fatal("watch failed")
		}
		return
	}

	conn, err := grpc.NewClient(*addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create grpc client")
	}
	defer conn.Close()

	callCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := execute(callCtx, grpcsvc.NewCartServiceClient(conn), args, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			os.Exit(2)
		}
		if st, ok := status.FromError(err); ok {
			_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", st.Code(), st.Message())
			os.Exit(1)
		}
		log.WithError(err).Fatal("command failed")
	}
}

// execute выполняет одну команду и печатает корзину в out.
func execute(ctx context.Context, client grpcsvc.CartServiceClient, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	var (
		resp *grpcsvc.CartResponse
		err  error
	)
	switch cmd, rest := args[0], args[1:]; cmd {
	case "get":
		resp, err = client.GetCart(ctx, &grpcsvc.GetCartRequest{})
	case "add", "remove":
		if len(rest) != 1 {
			return fmt.Errorf("%w: %s needs <product-id>", errUsage, cmd)
		}
		id, perr := parseID(rest[0])
		if perr != nil {
			return perr
		}
		if cmd == "add" {
			resp, err = client.AddProduct(ctx, &grpcsvc.ProductRequest{ProductID: id})
		} else {
			resp, err = client.RemoveProduct(ctx, &grpcsvc.ProductRequest{ProductID: id})
		}
	case "update":
		if len(rest) != 2 {
			return fmt.Errorf("%w: update needs <product-id> <amount>", errUsage)
		}
		id, perr := parseID(rest[0])
		if perr != nil {
			return perr
		}
		amount, perr := strconv.Atoi(rest[1])
		if perr != nil {
			return fmt.Errorf("%w: amount must be an integer", errUsage)
		}
		resp, err = client.UpdateProductAmount(ctx, &grpcsvc.UpdateProductAmountRequest{ProductID: id, Amount: amount})
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err != nil {
		return err
	}
	return printCart(out, resp)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: product id must be a positive integer", errUsage)
	}
	return id, nil
}

func printCart(out io.Writer, resp *grpcsvc.CartResponse) error {
	for _, item := range resp.Items {
		if _, err := fmt.Fprintf(out, "%d\t%-50s\t%3d x %8.2f\n", item.ID, item.Title, item.Amount, item.Price); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "items=%d units=%d total=%.2f\n", resp.Summary.Items, resp.Summary.Amount, resp.Summary.Total)
	return err
}

// watch печатает события корзины из Kafka построчно в JSON до отмены ctx.
func watch(ctx context.Context, brokers, group, topic string, out io.Writer) error {
	list := strings.Split(brokers, ",")
	if strings.TrimSpace(brokers) == "" {
		return errors.New("kafka brokers are required for watch (-brokers or KAFKA_BROKERS)")
	}

	var mu sync.Mutex
	enc := json.NewEncoder(out)
	consumer, err := kafka.NewConsumer(list, group, []string{topic}, false, func(_ context.Context, event *kafka.CartEventMessage) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(event)
	}, log.WithField("component", "cartctl-watch"))
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Stop() }()

	consumer.Start(ctx)
	<-ctx.Done()
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
