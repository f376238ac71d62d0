package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or clear the local session profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := profile.NewService(st.ProfileRepo()).Load(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if p == nil {
			fmt.Fprintln(out, "尚未登录。运行 mindharmony 并同意条款以创建资料。")
			return nil
		}
		fmt.Fprintf(out, "昵称：    %s\n", p.Nickname)
		if p.StudentID != "" {
			fmt.Fprintf(out, "学号：    %s\n", p.StudentID)
		}
		fmt.Fprintf(out, "管理员：  %v\n", p.IsAdmin)
		if !p.CreatedAt.IsZero() {
			fmt.Fprintf(out, "创建于：  %s\n", humanize.Time(p.CreatedAt))
		}
		return nil
	},
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Log out by clearing the stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := profile.NewService(st.ProfileRepo()).Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "已退出登录。")
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileClearCmd)
}
