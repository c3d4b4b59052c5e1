package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-edgecli/internal/dispatch"
	"github.com/alnah/go-edgecli/internal/format"
)

// maxParallelGets bounds concurrent requests issued by a single get command.
const maxParallelGets = 4

// GetCmd creates the get command.
// The env parameter provides injectable dependencies for testing.
func GetCmd(env *Env, g *Globals) *cobra.Command {
	var metricType string

	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "GET one or more API paths",
		Long: `Send a signed GET request for each path and print the response bodies.

Several paths are fetched concurrently; results are printed in argument order.
The first failure aborts the command.`,
		Example: `  edgecli get /edgeworkers/v1/ids
  edgecli get /edgekv/v1/networks/staging/namespaces --metric-type list_namespaces
  edgecli get /edgeworkers/v1/ids/42 /edgeworkers/v1/ids/43 -f yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), env, g, args, metricType)
		},
	}

	cmd.Flags().StringVar(&metricType, "metric-type", "", "classification sent with key-value API requests")

	return cmd
}

// DeleteCmd creates the delete command.
func DeleteCmd(env *Env, g *Globals) *cobra.Command {
	var metricType string

	cmd := &cobra.Command{
		Use:     "delete <path>",
		Short:   "DELETE an API path",
		Example: `  edgecli delete /edgekv/v1/networks/staging/namespaces/ns/groups/g/items/k`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), env, g, sendOptions{
				method:     http.MethodDelete,
				path:       args[0],
				metricType: metricType,
			})
		},
	}

	cmd.Flags().StringVar(&metricType, "metric-type", "", "classification sent with key-value API requests")

	return cmd
}

// PostCmd creates the post command.
func PostCmd(env *Env, g *Globals) *cobra.Command {
	return bodyCmd(env, g, http.MethodPost)
}

// PutCmd creates the put command.
func PutCmd(env *Env, g *Globals) *cobra.Command {
	return bodyCmd(env, g, http.MethodPut)
}

// bodyCmd builds the post and put commands, which differ only by method.
func bodyCmd(env *Env, g *Globals, method string) *cobra.Command {
	var (
		data       string
		metricType string
	)

	verb := strings.ToLower(method)
	cmd := &cobra.Command{
		Use:   verb + " <path>",
		Short: method + " a JSON body to an API path",
		Long: method + ` a body to an API path with a JSON content type.

--data takes the body inline, or @file to read it from a file.
The body is sent as given; it is not re-encoded.`,
		Example: fmt.Sprintf(`  edgecli %s /edgeworkers/v1/ids --data '{"name":"hello","groupId":1}'
  edgecli %s /edgekv/v1/networks/staging/namespaces --data @namespace.json`, verb, verb),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readData(data)
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), env, g, sendOptions{
				method:     method,
				path:       args[0],
				body:       body,
				metricType: metricType,
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "request body, inline or @file")
	cmd.Flags().StringVar(&metricType, "metric-type", "", "classification sent with key-value API requests")

	return cmd
}

// sendOptions holds the validated options for a single-path request.
type sendOptions struct {
	method     string
	path       string
	body       any
	metricType string
}

// runGet fetches every path concurrently and renders them in order.
func runGet(ctx context.Context, env *Env, g *Globals, paths []string, metricType string) error {
	sess, err := newSession(env, g)
	if err != nil {
		return err
	}

	bodies := make([]any, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelGets)

	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			start := env.Now()
			res, err := sess.dispatcher.GetJSON(egCtx, p, sess.timeout, dispatch.WithMetricType(metricType))
			if err != nil {
				return err
			}
			sess.logger.Debug().
				Str("path", p).
				Str("elapsed", format.DurationHuman(env.Now().Sub(start))).
				Msg("request completed")
			bodies[i] = res.Body
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	return emit(env, sess.output, sess.format, func(w io.Writer) error {
		for i, body := range bodies {
			if i > 0 && sess.format == format.KindYAML && body != nil {
				_, _ = fmt.Fprintln(w, "---")
			}
			if err := format.Render(w, body, sess.format); err != nil {
				return err
			}
		}
		return nil
	})
}

// runSend dispatches one request and renders its body.
func runSend(ctx context.Context, env *Env, g *Globals, opts sendOptions) error {
	sess, err := newSession(env, g)
	if err != nil {
		return err
	}

	callOpts := []dispatch.CallOption{dispatch.WithMetricType(opts.metricType)}

	var res *dispatch.Envelope
	switch opts.method {
	case http.MethodDelete:
		res, err = sess.dispatcher.Delete(ctx, opts.path, sess.timeout, callOpts...)
	case http.MethodPost:
		res, err = sess.dispatcher.PostJSON(ctx, opts.path, opts.body, sess.timeout, callOpts...)
	case http.MethodPut:
		res, err = sess.dispatcher.PutJSON(ctx, opts.path, opts.body, sess.timeout, callOpts...)
	default:
		res, err = sess.dispatcher.GetJSON(ctx, opts.path, sess.timeout, callOpts...)
	}
	if err != nil {
		return err
	}

	return emit(env, sess.output, sess.format, func(w io.Writer) error {
		return format.Render(w, res.Body, sess.format)
	})
}

// readData resolves a --data value. "@file" reads the file; anything else
// is used inline. Valid JSON is passed through as a raw message, other
// text as a plain string. An empty value means no body.
func readData(data string) (any, error) {
	if data == "" {
		return nil, nil
	}

	raw := []byte(data)
	if name, ok := strings.CutPrefix(data, "@"); ok {
		if name == "" {
			return nil, fmt.Errorf("missing file name after @: %w", ErrInvalidData)
		}
		b, err := os.ReadFile(name) // #nosec G304 -- user-specified input file
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", name, ErrInvalidData)
		}
		raw = b
	}

	if json.Valid(raw) {
		return json.RawMessage(raw), nil
	}
	return string(raw), nil
}
