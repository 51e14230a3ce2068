package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/spf13/cobra"
)

var (
	newUsername string
	newEmail    string
	newPassword string
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long:  `Create, deactivate, and list user accounts.`,
}

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long:  `Create an active user account. The password must satisfy the strength rule.`,
	Run: func(cmd *cobra.Command, args []string) {
		createUser()
	},
}

var deactivateUserCmd = &cobra.Command{
	Use:   "deactivate [username]",
	Short: "Deactivate a user account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setUserActive(args[0], false)
	},
}

var activateUserCmd = &cobra.Command{
	Use:   "activate [username]",
	Short: "Reactivate a user account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setUserActive(args[0], true)
	},
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user accounts",
	Run: func(cmd *cobra.Command, args []string) {
		listUsers()
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createUserCmd)
	userCmd.AddCommand(deactivateUserCmd)
	userCmd.AddCommand(activateUserCmd)
	userCmd.AddCommand(listUsersCmd)

	createUserCmd.Flags().StringVarP(&newUsername, "username", "u", "", "Username (required)")
	createUserCmd.Flags().StringVarP(&newEmail, "email", "e", "", "Email address (required)")
	createUserCmd.Flags().StringVarP(&newPassword, "password", "p", "", "Password (required)")
	createUserCmd.MarkFlagRequired("username")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
}

func createUser() {
	_, a := loadApp()
	defer a.Close()

	user, err := a.Service.Register(context.Background(), service.RegisterInput{
		Username:        newUsername,
		Email:           newEmail,
		Password:        newPassword,
		ConfirmPassword: newPassword,
	}, service.RequestMeta{ClientIP: "cli"})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created: id=%d username=%s email=%s\n", user.ID, user.Username, user.Email)
}

func setUserActive(username string, active bool) {
	_, a := loadApp()
	defer a.Close()

	user, err := a.Service.SetUserActive(context.Background(), username, active)
	if err != nil {
		log.Fatalf("Failed to update user %s: %v", username, err)
	}

	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	fmt.Printf("User %s %s\n", user.Username, state)
}

func listUsers() {
	_, a := loadApp()
	defer a.Close()

	users, err := a.Service.ListUsers(context.Background())
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	if len(users) == 0 {
		fmt.Println("No users found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tACTIVE\tLAST LOGIN\tPASSWORD CHANGED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\t%s\n",
			u.ID, u.Username, u.Email, u.IsActive, lastLogin(u), models.FormatDate(u.LastPasswordChange))
	}
	w.Flush()
}

func lastLogin(u *models.User) string {
	if u.LastLogin == nil {
		return "never"
	}
	return u.LastLogin.Format("2006-01-02 15:04")
}
