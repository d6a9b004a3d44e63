package main

import (
	"os"

	"github.com/spf13/cobra"

	classifycmder "github.com/papercomputeco/lens/cmd/lens/classify"
	envelopecmder "github.com/papercomputeco/lens/cmd/lens/envelope"
	inspectcmder "github.com/papercomputeco/lens/cmd/lens/inspect"
	mergecmder "github.com/papercomputeco/lens/cmd/lens/merge"
	pushcmder "github.com/papercomputeco/lens/cmd/lens/push"
	validatecmder "github.com/papercomputeco/lens/cmd/lens/validate"
	"github.com/papercomputeco/lens/proxy"
)

const lensLongDesc string = `lens prepares image and text requests for vision model APIs.

It classifies and validates image references, builds Messages API request
bodies with any system image moved into the first user turn, and manages
the request ledgers written by the lens proxy.`

const lensShortDesc string = "Multimodal request preparation"

func newLensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lens",
		Short:        lensShortDesc,
		Long:         lensLongDesc,
		Version:      proxy.Version,
		SilenceUsage: true,
	}

	cmd.AddCommand(classifycmder.NewClassifyCmd())
	cmd.AddCommand(validatecmder.NewValidateCmd())
	cmd.AddCommand(envelopecmder.NewEnvelopeCmd())
	cmd.AddCommand(inspectcmder.NewInspectCmd())
	cmd.AddCommand(mergecmder.NewMergeCmd())
	cmd.AddCommand(pushcmder.NewPushCmd())

	return cmd
}

func main() {
	if err := newLensCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
