package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/partyline-dev/partyline/internal/auth"
	"github.com/partyline-dev/partyline/internal/models"
	"github.com/partyline-dev/partyline/internal/validation"
)

type userCreateOptions struct {
	email    string
	name     string
	password string
	role     string
}

// NewUserCmd creates the user command group
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserSetRoleCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	opts := &userCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with an email and password",
		Long: `Create a user with an email and password.

Values not given as flags are prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptMissing(opts); err != nil {
				return err
			}

			e, err := openEnv(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.close()

			return runUserCreate(cmd.Context(), e, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&opts.role, "role", "user", "Role: "+strings.Join(models.RoleNames(), ", "))
	return cmd
}

func runUserCreate(ctx context.Context, e *env, opts *userCreateOptions) error {
	role := models.ParseRole(opts.role)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q (expected one of: %s)", opts.role, strings.Join(models.RoleNames(), ", "))
	}

	v := validation.Validate(validation.SignUpInput{
		Email:    opts.email,
		Password: opts.password,
		Name:     opts.name,
	})
	if !v.Success {
		return errors.New(v.Message)
	}

	res, err := e.auth.SignUpEmail(ctx, http.Header{}, auth.SignUpBody{
		Email:    v.Data.Email,
		Password: v.Data.Password,
		Name:     v.Data.Name,
	})
	if err != nil {
		return describe(err)
	}

	user := res.User
	if role != models.RoleUser {
		updated, err := e.auth.SetRole(ctx, user.ID, role)
		if err != nil {
			return describe(err)
		}
		user = *updated
	}

	fmt.Fprintf(e.out, "✓ Created user %s (%s) with role %s\n", user.Name, user.Email, user.Role)
	return nil
}

func newUserSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> [role]",
		Short: "Change a user's role",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var role string
			if len(args) == 2 {
				role = args[1]
			} else {
				selected, err := promptRole()
				if err != nil {
					return err
				}
				role = selected
			}

			e, err := openEnv(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.close()

			return runUserSetRole(cmd.Context(), e, args[0], role)
		},
	}
}

func runUserSetRole(ctx context.Context, e *env, email, roleName string) error {
	v := validation.Validate(validation.SetRoleInput{UserID: email, Role: roleName})
	if !v.Success {
		return errors.New(v.Message)
	}

	user, err := e.auth.UserByEmail(ctx, email)
	if err != nil {
		return describe(err)
	}

	updated, err := e.auth.SetRole(ctx, user.ID, models.ParseRole(v.Data.Role))
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(e.out, "✓ %s is now %s\n", updated.Email, updated.Role)
	return nil
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.close()

			return runUserList(cmd.Context(), e)
		},
	}
}

func runUserList(ctx context.Context, e *env) error {
	users, err := e.auth.ListUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Fprintln(e.out, "No users found.")
		fmt.Fprintln(e.out, "\nCreate one with: partyline user create")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// describe turns collaborator errors into their message
func describe(err error) error {
	var apiErr *auth.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

func promptMissing(opts *userCreateOptions) error {
	if opts.email == "" {
		v, err := (&promptui.Prompt{Label: "Email"}).Run()
		if err != nil {
			return fmt.Errorf("prompt cancelled: %w", err)
		}
		opts.email = v
	}

	if opts.name == "" {
		v, err := (&promptui.Prompt{Label: "Name"}).Run()
		if err != nil {
			return fmt.Errorf("prompt cancelled: %w", err)
		}
		opts.name = v
	}

	if opts.password == "" {
		v, err := (&promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(s string) error {
				if len(s) < 8 {
					return errors.New("password must be at least 8 characters")
				}
				return nil
			},
		}).Run()
		if err != nil {
			return fmt.Errorf("prompt cancelled: %w", err)
		}
		opts.password = v
	}
	return nil
}

func promptRole() (string, error) {
	prompt := promptui.Select{
		Label: "Select a role",
		Items: models.RoleNames(),
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
	}

	_, role, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return role, nil
}
