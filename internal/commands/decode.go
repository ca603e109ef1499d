package commands

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

func lookupSchema(name string) (*serde.Schema, error) {
	schema, ok := serde.Default.Lookup(name)
	if !ok {
		return nil, errors.Newf("unknown model %q, run 'querydesk models' to list them", name)
	}
	return schema, nil
}

// readInput 读取文件内容，path 为空或 "-" 时读取 stdin。
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, "", merr.WrapErrIoKeyNotFound(path)
	case err != nil:
		return nil, "", merr.WrapErrIoFailed(path, err)
	}
	return data, filepath.Base(path), nil
}

// decodeDocument 将 JSON 文档按模型解码，根为数组时逐项解码。
func decodeDocument(schema *serde.Schema, data []byte, name string) (any, error) {
	input, err := json.UnmarshalAny(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	return serde.Default.Deserialize(input, schema.Factory(), name)
}

func addDecode(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	var name string

	cmd := &cobra.Command{
		Use:   "decode <model> [file]",
		Short: "Decode a JSON document into a model and print its canonical form.",
		Example: `
querydesk decode connection conn.json
cat connections.json | querydesk decode connection -o yaml
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) > 1 {
				path = args[1]
			}
			data, base, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			if name == "" {
				name = base
			}
			v, err := decodeDocument(schema, data, name)
			if err != nil {
				return err
			}
			out, err := serde.Default.Serialize(v)
			if err != nil {
				return err
			}
			return oo.Write(cmd.OutOrStdout(), out)
		},
	}
	addOutputArgs(cmd, oo)
	cmd.Flags().StringVar(&name, "name", "", "Name used as the first segment of error paths, defaults to the file name.")

	topLevel.AddCommand(cmd)
}
