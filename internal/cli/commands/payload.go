package commands

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/pulsarschema/avro"
	"github.com/reoring/pulsarschema/codec"
	"github.com/reoring/pulsarschema/compression"
	"github.com/reoring/pulsarschema/message"
)

// envelope is the JSON rendering of a message.Message.
type envelope struct {
	Payload          []byte `json:"payload"`
	SchemaVersion    string `json:"schemaVersion,omitempty"`
	Compression      string `json:"compression"`
	UncompressedSize int    `json:"uncompressedSize"`
}

func toEnvelope(m *message.Message) envelope {
	return envelope{
		Payload:          m.Payload,
		SchemaVersion:    hex.EncodeToString(m.SchemaVersion),
		Compression:      m.Compression.String(),
		UncompressedSize: m.UncompressedSize,
	}
}

func (e envelope) message() (*message.Message, error) {
	t, err := compression.ParseType(e.Compression)
	if err != nil {
		return nil, err
	}
	version, err := hex.DecodeString(e.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("schema version: %w", err)
	}
	if len(version) == 0 {
		version = nil
	}
	return &message.Message{
		Payload:          e.Payload,
		SchemaVersion:    version,
		Compression:      t,
		UncompressedSize: e.UncompressedSize,
	}, nil
}

type encodeOptions struct {
	schema      string
	input       string
	output      string
	compression string
	version     int64
	envelope    bool
}

func newEncodeCommand(root *rootOptions) *cobra.Command {
	opts := &encodeOptions{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a JSON value into a binary payload",
		Long: `Read a JSON value and write its binary encoding.

With --envelope the output is a JSON message envelope carrying the
compressed payload, compression type and schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := avro.ParseFile(opts.schema)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, opts.input)
			if err != nil {
				return err
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			var v any
			if err := dec.Decode(&v); err != nil {
				return fmt.Errorf("input: %w", err)
			}

			t := root.cfg.CompressionType()
			if opts.compression != "" {
				if t, err = compression.ParseType(opts.compression); err != nil {
					return err
				}
			}
			msgOpts := []message.Option{message.WithCompression(t)}
			if opts.version >= 0 {
				msgOpts = append(msgOpts, message.WithSchemaVersion(message.Version(opts.version)))
			}
			msg, err := message.Encode(cmd.Context(), codec.Codec[any](codec.AvroSchema(s)), v, msgOpts...)
			if err != nil {
				return err
			}

			out := msg.Payload
			if opts.envelope {
				if out, err = json.Marshal(toEnvelope(msg)); err != nil {
					return err
				}
				out = append(out, '\n')
			}
			return writeOutput(cmd, opts.output, out)
		},
	}
	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "schema document")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "JSON input file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file")
	cmd.Flags().StringVar(&opts.compression, "compression", "", "payload compression (none, lz4, zlib, zstd, snappy)")
	cmd.Flags().Int64Var(&opts.version, "schema-version", -1, "schema version stamped on the envelope")
	cmd.Flags().BoolVar(&opts.envelope, "envelope", false, "write a JSON message envelope")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

type decodeOptions struct {
	schema   string
	writer   string
	input    string
	envelope bool
	registry bool
}

func newDecodeCommand(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a binary payload into JSON",
		Long: `Read a binary payload (or a JSON envelope with --envelope) and print it as JSON.

--writer names the schema the payload was written with when it differs
from --schema. With --registry the writer schema is looked up in the
shared version table by the envelope's schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := avro.ParseFile(opts.schema)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, opts.input)
			if err != nil {
				return err
			}

			msg := &message.Message{Payload: raw, UncompressedSize: len(raw)}
			if opts.envelope {
				var e envelope
				if err := json.Unmarshal(raw, &e); err != nil {
					return fmt.Errorf("envelope: %w", err)
				}
				if msg, err = e.message(); err != nil {
					return err
				}
			}

			c := codec.AvroSchema(s)
			var v any
			switch {
			case opts.writer != "":
				w, err := avro.ParseFile(opts.writer)
				if err != nil {
					return err
				}
				payload, err := compression.Decompress(msg.Compression, msg.Payload, msg.UncompressedSize)
				if err != nil {
					return err
				}
				v, err = c.DecodeWithWriter(ctx, payload, w)
				if err != nil {
					return err
				}
			case opts.registry:
				versions, err := message.NewRedisVersions(redisConfig(root))
				if err != nil {
					return err
				}
				defer versions.Close()
				v, err = message.Decode(ctx, codec.Codec[any](c), msg, versions)
				if err != nil {
					return err
				}
			default:
				v, err = message.Decode(ctx, codec.Codec[any](c), msg, nil)
				if err != nil {
					return err
				}
			}

			out, err := json.Marshal(textual(v))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "reader schema document")
	cmd.Flags().StringVarP(&opts.writer, "writer", "w", "", "writer schema document")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "payload file")
	cmd.Flags().BoolVar(&opts.envelope, "envelope", false, "read a JSON message envelope")
	cmd.Flags().BoolVar(&opts.registry, "registry", false, "look the writer schema up in the shared version table")
	_ = cmd.MarkFlagRequired("schema")
	cmd.MarkFlagsMutuallyExclusive("writer", "registry")
	return cmd
}

func newRegisterCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <schema-file>",
		Short: "Add a schema to the shared version table and print its version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := avro.ParseFile(args[0])
			if err != nil {
				return err
			}
			versions, err := message.NewRedisVersions(redisConfig(root))
			if err != nil {
				return err
			}
			defer versions.Close()
			version, err := versions.Add(cmd.Context(), s)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(version))
			return err
		},
	}
}

func redisConfig(root *rootOptions) message.RedisConfig {
	r := root.cfg.Redis
	return message.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB, Prefix: r.Prefix}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// textual renders bytes and fixed values as their Latin-1 strings, the way
// Avro's JSON encoding writes them.
func textual(v any) any {
	switch t := v.(type) {
	case []byte:
		return avro.Latin1String(t)
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = textual(it)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, mv := range t {
			out[k] = textual(mv)
		}
		return out
	}
	return v
}
