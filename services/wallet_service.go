package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"gan-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletService owns every token movement. Each successful credit, debit or
// transfer leg writes exactly one Transaction row for the wallet it touched,
// with balance_before/balance_after snapshotted around the mutation.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// CreditOptions describes the ledger row written alongside a credit.
type CreditOptions struct {
	Type         models.TransactionType
	Description  string
	AmountPKR    float64
	TournamentID string
	SenderUserID string
}

// DebitOptions describes the ledger row written alongside a debit.
type DebitOptions struct {
	Type         models.TransactionType
	Description  string
	TournamentID string
}

// GetOrCreateWallet fetches the user's wallet, creating a zero-balance row if
// it is somehow missing (wallets are normally created with the user).
func (s *WalletService) GetOrCreateWallet(tx *gorm.DB, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = models.Wallet{ID: uuid.NewString(), UserID: userID}
		if err := tx.Create(&wallet).Error; err != nil {
			return nil, fmt.Errorf("create wallet: %w", err)
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit adds amount tokens of the given class to the user's wallet and
// records a completed ledger row. It must run inside a DB transaction; the
// wallet row is locked for the duration.
func (s *WalletService) Credit(tx *gorm.DB, userID string, amount int, class models.TokenClass, opts CreditOptions) (*models.Wallet, *models.Transaction, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if !class.IsValid() {
		return nil, nil, fmt.Errorf("invalid token class %q", class)
	}

	wallet, err := s.lockWallet(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Credits never fail for a missing wallet; create one.
			wallet, err = s.GetOrCreateWallet(tx, userID)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	balanceBefore := wallet.TotalBalance()
	if class == models.TokenClassPurchased {
		wallet.AddPurchased(amount, opts.AmountPKR)
	} else {
		wallet.AddEarned(amount)
	}

	if err := tx.Save(wallet).Error; err != nil {
		return nil, nil, fmt.Errorf("save wallet: %w", err)
	}

	txnType := opts.Type
	if txnType == "" {
		txnType = models.TransactionTypePurchase
	}
	txn := &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          txnType,
		TokenAmount:   amount,
		TokenClass:    class,
		AmountPKR:     opts.AmountPKR,
		TournamentID:  opts.TournamentID,
		SenderUserID:  opts.SenderUserID,
		Description:   opts.Description,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.TotalBalance(),
	}
	txn.MarkCompleted()

	if err := tx.Create(txn).Error; err != nil {
		return nil, nil, fmt.Errorf("create transaction: %w", err)
	}
	return wallet, txn, nil
}

// Debit removes amount tokens following the policy, all-or-nothing. Returns
// InsufficientBalanceError without touching the wallet when the total balance
// is short. Must run inside a DB transaction; the wallet row stays locked so
// concurrent debits cannot drive a balance negative.
func (s *WalletService) Debit(tx *gorm.DB, userID string, amount int, policy models.DebitPolicy, opts DebitOptions) (*models.Wallet, *models.Transaction, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	wallet, err := s.lockWallet(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrWalletNotFound
		}
		return nil, nil, err
	}

	balanceBefore := wallet.TotalBalance()
	if !wallet.Deduct(amount, policy) {
		return nil, nil, &InsufficientBalanceError{Required: amount, Available: balanceBefore}
	}

	if err := tx.Save(wallet).Error; err != nil {
		return nil, nil, fmt.Errorf("save wallet: %w", err)
	}

	txnType := opts.Type
	if txnType == "" {
		txnType = models.TransactionTypeEntry
	}
	txn := &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          txnType,
		TokenAmount:   amount,
		TokenClass:    models.TokenClassPurchased,
		TournamentID:  opts.TournamentID,
		Description:   opts.Description,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.TotalBalance(),
	}
	txn.MarkCompleted()

	if err := tx.Create(txn).Error; err != nil {
		return nil, nil, fmt.Errorf("create transaction: %w", err)
	}
	return wallet, txn, nil
}

// Transfer moves earned tokens between two users in one DB transaction,
// writing a transfer_out row for the sender and a transfer_in row for the
// recipient, each referencing the counter-party. Purchased tokens represent
// money already spent by the buyer and are never transferable.
func (s *WalletService) Transfer(senderID, recipientID string, amount int, class models.TokenClass) (*models.Transaction, error) {
	if class != models.TokenClassEarned {
		return nil, ErrTransferRestricted
	}
	if senderID == recipientID {
		return nil, ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var senderTxn *models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock both wallets in a stable order so two opposing transfers
		// cannot deadlock.
		first, second := senderID, recipientID
		if second < first {
			first, second = second, first
		}
		if _, err := s.lockWallet(tx, first); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if _, err := s.lockWallet(tx, second); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sender, err := s.lockWallet(tx, senderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if sender.EarnedTokens < amount {
			return &InsufficientBalanceError{Required: amount, Available: sender.EarnedTokens}
		}

		recipient, err := s.GetOrCreateWallet(tx, recipientID)
		if err != nil {
			return err
		}

		senderBefore := sender.TotalBalance()
		recipientBefore := recipient.TotalBalance()

		sender.EarnedTokens -= amount
		recipient.EarnedTokens += amount

		if err := tx.Save(sender).Error; err != nil {
			return fmt.Errorf("save sender wallet: %w", err)
		}
		if err := tx.Save(recipient).Error; err != nil {
			return fmt.Errorf("save recipient wallet: %w", err)
		}

		out := &models.Transaction{
			ID:              uuid.NewString(),
			UserID:          senderID,
			Type:            models.TransactionTypeTransferOut,
			TokenAmount:     amount,
			TokenClass:      models.TokenClassEarned,
			RecipientUserID: recipientID,
			BalanceBefore:   senderBefore,
			BalanceAfter:    sender.TotalBalance(),
		}
		out.MarkCompleted()

		in := &models.Transaction{
			ID:            uuid.NewString(),
			UserID:        recipientID,
			Type:          models.TransactionTypeTransferIn,
			TokenAmount:   amount,
			TokenClass:    models.TokenClassEarned,
			SenderUserID:  senderID,
			BalanceBefore: recipientBefore,
			BalanceAfter:  recipient.TotalBalance(),
		}
		in.MarkCompleted()

		if err := tx.Create(out).Error; err != nil {
			return fmt.Errorf("create transfer_out: %w", err)
		}
		if err := tx.Create(in).Error; err != nil {
			return fmt.Errorf("create transfer_in: %w", err)
		}

		senderTxn = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return senderTxn, nil
}

// lockWallet fetches the wallet row under FOR UPDATE.
func (s *WalletService) lockWallet(tx *gorm.DB, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := forUpdate(tx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// --- Handlers ---

// GetBalance returns the caller's wallet.
func (s *WalletService) GetBalance(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	wallet, err := s.GetOrCreateWallet(s.DB, userID)
	if err != nil {
		log.Printf("[Wallet] failed to load wallet for %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load wallet"})
	}

	return c.JSON(fiber.Map{
		"purchased_tokens":       wallet.PurchasedTokens,
		"earned_tokens":          wallet.EarnedTokens,
		"total_balance":          wallet.TotalBalance(),
		"total_tokens_purchased": wallet.TotalTokensPurchased,
		"total_tokens_earned":    wallet.TotalTokensEarned,
		"total_tokens_spent":     wallet.TotalTokensSpent,
		"total_spent_pkr":        wallet.TotalSpentPKR,
	})
}

// GetTransactions returns the caller's paginated ledger history, filterable
// by kind and status.
func (s *WalletService) GetTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if t := c.Query("type"); t != "" {
		if !models.TransactionType(t).IsValid() {
			return c.Status(400).JSON(fiber.Map{"error": "unknown transaction type"})
		}
		query = query.Where("type = ?", t)
	}
	if st := c.Query("status"); st != "" {
		if !models.TransactionStatus(st).IsValid() {
			return c.Status(400).JSON(fiber.Map{"error": "unknown transaction status"})
		}
		query = query.Where("status = ?", st)
	}

	var total int64
	query.Count(&total)

	var transactions []models.Transaction
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&transactions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load transactions"})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"per_page":     perPage,
		"has_more":     int64(page*perPage) < total,
	})
}

// TransferTokens sends earned tokens to the user owning the given email.
func (s *WalletService) TransferTokens(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		RecipientEmail string `json:"recipient_email"`
		Amount         int    `json:"amount"`
		TokenClass     string `json:"token_class"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.RecipientEmail == "" || req.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "recipient_email and a positive amount are required"})
	}
	class := models.TokenClass(req.TokenClass)
	if req.TokenClass == "" {
		class = models.TokenClassEarned
	}

	var recipient models.User
	if err := s.DB.Where("email = ?", req.RecipientEmail).First(&recipient).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "recipient not found"})
	}

	txn, err := s.Transfer(userID, recipient.ID, req.Amount, class)
	if err != nil {
		return walletErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"message":            fmt.Sprintf("transferred %d tokens to %s", req.Amount, recipient.Email),
		"transaction_id":     txn.ID,
		"tokens_transferred": req.Amount,
		"new_balance":        txn.BalanceAfter,
		"recipient_email":    recipient.Email,
	})
}

// walletErrorResponse maps wallet error kinds onto structured client errors.
// Balance-affecting endpoints are always fully applied or fully rejected, so
// an error here means nothing was written.
func walletErrorResponse(c *fiber.Ctx, err error) error {
	var insufficient *InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(400).JSON(fiber.Map{
			"error":     "insufficient_balance",
			"message":   "Insufficient token balance",
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	case errors.Is(err, ErrTransferRestricted):
		return c.Status(400).JSON(fiber.Map{"error": "transfer_restricted", "message": err.Error()})
	case errors.Is(err, ErrSelfTransfer):
		return c.Status(400).JSON(fiber.Map{"error": "self_transfer", "message": err.Error()})
	case errors.Is(err, ErrInvalidAmount):
		return c.Status(400).JSON(fiber.Map{"error": "invalid_amount", "message": err.Error()})
	case errors.Is(err, ErrWalletNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "wallet_not_found", "message": err.Error()})
	}
	log.Printf("[Wallet] operation failed: %v", err)
	return c.Status(500).JSON(fiber.Map{"error": "wallet operation failed"})
}
