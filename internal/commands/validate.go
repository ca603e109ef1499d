package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/querydesk-go/pkg/util/conc"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
	"github.com/lk2023060901/querydesk-go/pkg/util/typeutil"
)

type validateResult struct {
	path string
	err  error
}

// validateFiles 并发校验 paths，结果顺序与 paths 一致，重复路径只校验一次。
func validateFiles(model string, paths []string, workers int) ([]validateResult, error) {
	schema, err := lookupSchema(model)
	if err != nil {
		return nil, err
	}

	opts := []conc.PoolOption{conc.WithName("validate"), conc.WithConcealPanic(true)}
	var pool *conc.Pool[validateResult]
	if workers > 0 {
		pool = conc.NewPool[validateResult](workers, opts...)
	} else {
		pool = conc.NewDefaultPool[validateResult](opts...)
	}
	defer pool.Release()

	seen := typeutil.NewSet[string]()
	futures := make([]*conc.Future[validateResult], 0, len(paths))
	for _, path := range paths {
		if seen.Contain(path) {
			continue
		}
		seen.Insert(path)
		path := path
		futures = append(futures, pool.Submit(func() (validateResult, error) {
			data, err := os.ReadFile(path)
			if err == nil {
				_, err = decodeDocument(schema, data, "")
			}
			return validateResult{path: path, err: err}, nil
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}

	results := make([]validateResult, 0, len(futures))
	for _, f := range futures {
		results = append(results, f.Value())
	}
	return results, nil
}

func addValidate(topLevel *cobra.Command) {
	var workers int

	cmd := &cobra.Command{
		Use:   "validate <model> <file>...",
		Short: "Validate JSON documents against a model.",
		Example: `
querydesk validate connection fixtures/*.json
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := validateFiles(args[0], args[1:], workers)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", r.path, r.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", r.path)
			}
			if failed > 0 {
				return merr.WrapErrSerdeValidation(fmt.Sprintf("%d of %d documents failed validation", failed, len(results)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent validations, 0 uses the CPU count.")

	topLevel.AddCommand(cmd)
}
