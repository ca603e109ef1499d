package commands

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// OutputOptions 为带结构化输出的命令共享的参数。
type OutputOptions struct {
	Format string
}

func addOutputArgs(cmd *cobra.Command, o *OutputOptions) {
	cmd.Flags().StringVarP(&o.Format, "output", "o", outputJSON, "Output format. One of 'json' or 'yaml'.")
}

func (o *OutputOptions) Write(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	switch o.Format {
	case "", outputJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case outputYAML:
		data, err = yaml.Marshal(v)
	default:
		return merr.WrapErrParameterInvalid(outputJSON+"|"+outputYAML, o.Format, "output format")
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
