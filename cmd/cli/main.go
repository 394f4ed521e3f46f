package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "Financial ledger CLI tool",
		Long:  `A command line interface for interacting with the financial ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}
	accountsCmd.AddCommand(createAccountCmd(), getAccountCmd(), closeAccountCmd(), listAccountsCmd())

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(consistencyCmd(), entriesCmd(), balanceCmd())

	rootCmd.AddCommand(
		accountsCmd,
		ledgerCmd,
		depositCmd(),
		withdrawCmd(),
		transferCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createAccountCmd() *cobra.Command {
	var ownerName, accountType, currency string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/accounts/", map[string]string{
				"owner_name":   ownerName,
				"account_type": accountType,
				"currency":     currency,
			})
		},
	}

	cmd.Flags().StringVar(&ownerName, "owner", "", "Account owner name")
	cmd.Flags().StringVar(&accountType, "type", "checking", "Account type (checking or savings)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func getAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <account-id>",
		Short: "Get an account with its derived balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/accounts/" + args[0])
		},
	}
}

func closeAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <account-id>",
		Short: "Close an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/accounts/"+args[0]+"/close", nil)
		},
	}
}

func listAccountsCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/accounts/?limit=%d&offset=%d", limit, offset))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func depositCmd() *cobra.Command {
	var accountID, amount, description string

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit externally funded money into an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/deposits", map[string]string{
				"account_id":  accountID,
				"amount":      amount,
				"description": description,
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to deposit")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func withdrawCmd() *cobra.Command {
	var accountID, amount, description string

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw money from an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/withdrawals", map[string]string{
				"account_id":  accountID,
				"amount":      amount,
				"description": description,
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Source account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to withdraw")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func transferCmd() *cobra.Command {
	var source, destination, amount, currency, description string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer money between two accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/transfers", map[string]string{
				"source_account_id":      source,
				"destination_account_id": destination,
				"amount":                 amount,
				"currency":               currency,
				"description":            description,
			})
		},
	}

	cmd.Flags().StringVar(&source, "from", "", "Source account ID")
	cmd.Flags().StringVar(&destination, "to", "", "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func entriesCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "entries <account-id>",
		Short: "List ledger entries for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/accounts/%s/entries?limit=%d&offset=%d", args[0], limit, offset))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Resolve an account balance from its entry history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/accounts/" + args[0] + "/balance")
		},
	}
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != http.StatusOK {
				fmt.Printf("Consistency check FAILED (Status: %d)\n", resp.StatusCode)
				printRawJSON(body)
				os.Exit(1)
			}

			fmt.Println("Consistency check PASSED")
			printRawJSON(body)
			return nil
		},
	}
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return renderResponse(resp)
}

func postJSON(path string, payload any) error {
	body := []byte("{}")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return renderResponse(resp)
}

func renderResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	printRawJSON(body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request rejected with status %d", resp.StatusCode)
	}

	return nil
}

func printRawJSON(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to encode: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
