package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjardine/gemsync/internal/catalog"
	"github.com/mjardine/gemsync/internal/models"
)

var groupsShowDetail bool

var groupsCmd = &cobra.Command{
	Use:   "groups [<group-id>]",
	Short: "List SKU groups or inspect one",
	Long: `Without arguments, list every group ID known to the warranty
database. With a group ID, show the product that would be built
for it: title, handle, options, and variants.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runGroups,
}

func init() {
	groupsCmd.Flags().BoolVar(&groupsShowDetail, "detail", false, "Show metafields as well")
}

func runGroups(cmd *cobra.Command, args []string) {
	c := initSourceContext()
	defer c.Close()

	ctx := context.Background()

	if len(args) == 0 {
		ids, err := c.Source.FetchAllGroupIDs(ctx)
		if err != nil {
			exitError("%v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Printf("%d group(s)\n", len(ids))
		return
	}

	groupID := args[0]
	group, err := c.Source.FetchGroup(ctx, groupID)
	if err != nil {
		exitError("%v", err)
	}

	classified := catalog.Classify(group)
	entity := catalog.Build(group, classified)
	fingerprint := models.Fingerprint(entity)

	fmt.Printf("Group:   %s (%d SKUs, %s)\n", group.ID, len(group.Rows), group.Category())
	fmt.Printf("Title:   %s\n", entity.Title)
	fmt.Printf("Handle:  %s\n", entity.Handle)
	fmt.Printf("Digest:  %s\n", shortID(fingerprint))

	if len(entity.Options) > 0 {
		fmt.Println("Options:")
		for _, opt := range entity.Options {
			fmt.Printf("  %s: %v\n", opt.DisplayName, opt.SortedValues)
		}
	}

	fmt.Printf("Variants (%d):\n", len(entity.Variants))
	for _, v := range entity.Variants {
		if len(v.OptionValues) > 0 {
			fmt.Printf("  %s  %v\n", v.SKU, v.OptionValues)
		} else {
			fmt.Printf("  %s\n", v.SKU)
		}
	}

	if groupsShowDetail && len(entity.Metafields) > 0 {
		fmt.Printf("Metafields (%d):\n", len(entity.Metafields))
		for _, f := range entity.Metafields {
			fmt.Printf("  %s.%s = %s\n", f.Namespace, f.Key, f.Value)
		}
	}

	if err := catalog.Validate(entity); err != nil {
		exitError("group is not syncable: %v", err)
	}
}
