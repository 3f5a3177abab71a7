package cli

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vector76/news_server/internal/model"
)

// articleArg validates an article id argument.
func articleArg(s string) (string, error) {
	id, err := model.ParseArticleID(s)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(id), nil
}

func newTotalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total <article-id>",
		Short: "Print the number of comments on an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := articleArg(args[0])
			if err != nil {
				return err
			}
			c, err := NewClientFromEnv()
			if err != nil {
				return err
			}

			data, err := c.Do("GET", "/article/"+id+"/comments/total", nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <article-id> [text]",
		Short: "Add a comment to an article (reads stdin when text is omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := articleArg(args[0])
			if err != nil {
				return err
			}

			var payload []byte
			if len(args) == 2 {
				payload = []byte(args[1])
			} else {
				if payload, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}

			c, err := NewClientFromEnv()
			if err != nil {
				return err
			}
			data, err := c.Do("POST", "/article/"+id+"/comments/add", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "show <article-id> <sequence>",
		Short: "Print one comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := articleArg(args[0])
			if err != nil {
				return err
			}
			seq, err := model.ParseSequence(args[1])
			if err != nil {
				return err
			}
			c, err := NewClientFromEnv()
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/article/%s/comments/%d", id, seq)
			if asHTML {
				path += "/html"
			}
			data, err := c.Do("GET", path, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			out.Write(data)
			if !strings.HasSuffix(string(data), "\n") {
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "render the comment as HTML")
	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every comment from every article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewClientFromEnv()
			if err != nil {
				return err
			}
			data, err := c.Do("GET", "/clean", nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
