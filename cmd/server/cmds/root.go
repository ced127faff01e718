package cmds

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/generic"
	"github.com/spf13/cobra"
)

type Cmd struct {
	Wallets      core.WalletStore
	Transactions core.TransactionService
}

func (c *Cmd) Run(ctx context.Context, args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(os.Stdout)

	return root.ExecuteContext(ctx)
}

func (c *Cmd) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gasless-wallet",
		Short:        "gasless-wallet admin tools",
		SilenceUsage: true,
	}

	root.AddCommand(c.walletCmd())
	root.AddCommand(c.balanceCmd())
	root.AddCommand(c.historyCmd())

	return root
}

type walletView struct {
	UserID         string              `json:"user_id"`
	Username       string              `json:"username,omitempty"`
	Email          string              `json:"email,omitempty"`
	WalletAddress  string              `json:"wallet_address"`
	PublicKey      string              `json:"public_key"`
	CreationStatus core.CreationStatus `json:"creation_status"`
	FeeMode        core.FeeMode        `json:"fee_mode"`
	DeployTxHash   string              `json:"deploy_tx_hash,omitempty"`
}

func (c *Cmd) walletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet <user_id>",
		Short: "show the wallet of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := c.Wallets.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return jsonPrint(cmd, walletView{
				UserID:         wallet.UserID,
				Username:       wallet.Username,
				Email:          wallet.Email,
				WalletAddress:  wallet.WalletAddress,
				PublicKey:      wallet.PublicKey,
				CreationStatus: wallet.CreationStatus,
				FeeMode:        wallet.FeeMode,
				DeployTxHash:   wallet.DeployTxHash,
			})
		},
	}
}

func (c *Cmd) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "read the token balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !core.IsAddress(args[0]) {
				return core.ErrInvalidAddress
			}

			balance := c.Transactions.GetBalance(cmd.Context(), args[0])
			cmd.Println(balance)
			return nil
		},
	}
}

type eventView struct {
	TxHash string `json:"tx_hash"`
	Block  uint64 `json:"block"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (c *Cmd) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <address>",
		Short: "scan recent token transfers of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !core.IsAddress(args[0]) {
				return core.ErrInvalidAddress
			}

			limit, _ := cmd.Flags().GetInt("limit")
			limit = min(max(limit, 1), maxHistoryLimit)
			events := c.Transactions.GetHistory(cmd.Context(), args[0], limit)
			return jsonPrint(cmd, generic.MapSlice(events, func(e *core.TransferEvent) eventView {
				return eventView{
					TxHash: e.TxHash,
					Block:  e.BlockNumber,
					From:   e.From,
					To:     e.To,
					Amount: core.FormatAmount(e.Amount),
				}
			}))
		},
	}

	cmd.Flags().Int("limit", 10, "max transfers to show")
	return cmd
}

const maxHistoryLimit = 100

func jsonPrint(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
