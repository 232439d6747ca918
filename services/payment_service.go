package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gan-backend/models"
	"gan-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService drives the purchase state machine:
// pending -> processing (gateway accepted) -> completed | failed (callback).
// Tokens are only ever credited on the processing -> completed transition,
// and that transition is idempotent.
type PaymentService struct {
	DB        *gorm.DB
	Wallets   *WalletService
	Easypaisa *EasypaisaClient
	JazzCash  *JazzCashClient
}

func NewPaymentService(db *gorm.DB, wallets *WalletService) *PaymentService {
	return &PaymentService{
		DB:        db,
		Wallets:   wallets,
		Easypaisa: NewEasypaisaClient(),
		JazzCash:  NewJazzCashClient(),
	}
}

// GetBundles lists active token bundles, cheapest first.
func (s *PaymentService) GetBundles(c *fiber.Ctx) error {
	var bundles []models.TokenBundle
	if err := s.DB.Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&bundles).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load bundles"})
	}

	out := make([]fiber.Map, 0, len(bundles))
	for i := range bundles {
		b := &bundles[i]
		out = append(out, fiber.Map{
			"id":            b.ID,
			"name":          b.Name,
			"tokens":        b.Tokens,
			"bonus_tokens":  b.BonusTokens,
			"total_tokens":  b.TotalTokens(),
			"price_pkr":     b.PricePKR,
			"price_usd":     b.PriceUSD,
			"price_display": utils.FormatPKR(b.PricePKR),
			"description":   b.Description,
			"badge":         b.Badge,
			"icon":          b.Icon,
			"is_featured":   b.IsFeatured,
		})
	}
	return c.JSON(fiber.Map{"bundles": out})
}

// InitiatePayment creates a pending purchase transaction and asks the chosen
// gateway to charge the user's mobile wallet. A gateway failure marks the
// transaction failed instead of propagating, so the user never sees an
// ambiguous charge state.
func (s *PaymentService) InitiatePayment(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		BundleID      string `json:"bundle_id"`
		PaymentMethod string `json:"payment_method"`
		MobileNumber  string `json:"mobile_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var bundle models.TokenBundle
	if err := s.DB.First(&bundle, "id = ?", req.BundleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "token bundle not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load bundle"})
	}
	if !bundle.IsActive {
		return c.Status(400).JSON(fiber.Map{"error": "this bundle is no longer available"})
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if method != models.PaymentEasypaisa && method != models.PaymentJazzCash {
		return c.Status(400).JSON(fiber.Map{"error": "unsupported payment method"})
	}

	mobileNumber := req.MobileNumber
	if mobileNumber == "" {
		var user models.User
		if err := s.DB.First(&user, "id = ?", userID).Error; err == nil {
			mobileNumber = user.MobileWalletNumber
		}
	}
	if mobileNumber == "" {
		return c.Status(400).JSON(fiber.Map{"error": "mobile number is required for mobile wallet payments"})
	}

	wallet, err := s.Wallets.GetOrCreateWallet(s.DB, userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load wallet"})
	}

	txn := &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          models.TransactionTypePurchase,
		Status:        models.TransactionPending,
		TokenAmount:   bundle.TotalTokens(),
		TokenClass:    models.TokenClassPurchased,
		PaymentMethod: method,
		AmountPKR:     bundle.PricePKR,
		AmountUSD:     bundle.PriceUSD,
		BundleID:      bundle.ID,
		Description:   fmt.Sprintf("Purchase: %s", bundle.Name),
		BalanceBefore: wallet.TotalBalance(),
	}
	if err := s.DB.Create(txn).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create transaction"})
	}

	var result *GatewayResult
	switch method {
	case models.PaymentEasypaisa:
		result, err = s.Easypaisa.InitiatePayment(txn.ID, bundle.PricePKR, mobileNumber,
			fmt.Sprintf("GAN - %s", bundle.Name))
	case models.PaymentJazzCash:
		result, err = s.JazzCash.InitiatePayment(txn.ID, bundle.PricePKR, mobileNumber,
			fmt.Sprintf("GAN - %s", bundle.Name))
	}
	if err != nil {
		log.Printf("[Payment] gateway initiation failed for txn %s: %v", txn.ID, err)
		s.DB.Model(txn).Updates(map[string]interface{}{
			"status": models.TransactionFailed,
			"notes":  err.Error(),
		})
		return c.Status(502).JSON(fiber.Map{"error": "failed to initiate payment"})
	}

	if err := s.DB.Model(txn).Updates(map[string]interface{}{
		"status":          models.TransactionProcessing,
		"external_txn_id": result.ExternalID,
	}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update transaction"})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Payment request sent to your mobile wallet",
		"transaction_id": txn.ID,
		"payment_method": method,
		"amount_pkr":     bundle.PricePKR,
		"amount_display": utils.FormatPKR(bundle.PricePKR),
		"tokens":         bundle.TotalTokens(),
		"mobile_number":  mobileNumber,
		"status":         models.TransactionProcessing,
	})
}

// CheckStatus returns the current state of one of the caller's purchases.
func (s *PaymentService) CheckStatus(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var txn models.Transaction
	err := s.DB.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "transaction not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load transaction"})
	}

	return c.JSON(fiber.Map{
		"transaction_id": txn.ID,
		"status":         txn.Status,
		"payment_method": txn.PaymentMethod,
		"amount_pkr":     txn.AmountPKR,
		"tokens":         txn.TokenAmount,
		"completed_at":   txn.CompletedAt,
	})
}

// GetReceipt returns the receipt for a completed purchase.
func (s *PaymentService) GetReceipt(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var txn models.Transaction
	err := s.DB.Where("id = ? AND user_id = ? AND type = ?",
		c.Params("id"), userID, models.TransactionTypePurchase).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "transaction not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load transaction"})
	}

	receipt := fiber.Map{
		"transaction_id":    txn.ID,
		"payment_method":    txn.PaymentMethod,
		"amount_pkr":        txn.AmountPKR,
		"amount_display":    utils.FormatPKR(txn.AmountPKR),
		"total_tokens":      txn.TokenAmount,
		"payment_reference": txn.PaymentReference,
		"status":            txn.Status,
		"purchased_at":      txn.CompletedAt,
	}

	var bundle models.TokenBundle
	if txn.BundleID != "" {
		if err := s.DB.First(&bundle, "id = ?", txn.BundleID).Error; err == nil {
			receipt["bundle_name"] = bundle.Name
			receipt["tokens_purchased"] = bundle.Tokens
			receipt["bonus_tokens"] = bundle.BonusTokens
		}
	}
	return c.JSON(receipt)
}

// EasypaisaCallback is the inbound webhook. The payload is signature-checked
// before anything is mutated.
func (s *PaymentService) EasypaisaCallback(c *fiber.Ctx) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	data := make(map[string]string, len(raw))
	for k, v := range raw {
		data[k] = fmt.Sprintf("%v", v)
	}

	if !s.Easypaisa.VerifyCallback(data) {
		log.Printf("[Payment] easypaisa callback rejected: bad signature")
		return c.Status(400).JSON(fiber.Map{"error": "invalid signature"})
	}

	orderID := data["orderId"]
	success := data["transactionStatus"] == "0000"
	note := fmt.Sprintf("Easypaisa status: %s", data["transactionStatus"])

	return s.finishCallback(c, orderID, success, data["transactionId"], note)
}

// JazzCashCallback handles the form-encoded JazzCash webhook.
func (s *PaymentService) JazzCashCallback(c *fiber.Ctx) error {
	form := c.Request().PostArgs()
	data := make(map[string]string)
	form.VisitAll(func(key, value []byte) {
		data[string(key)] = string(value)
	})

	if !s.JazzCash.VerifyCallback(data) {
		log.Printf("[Payment] jazzcash callback rejected: bad signature")
		return c.Status(400).JSON(fiber.Map{"error": "invalid signature"})
	}

	orderID := data["pp_TxnRefNo"]
	success := data["pp_ResponseCode"] == "000"
	note := fmt.Sprintf("JazzCash: %s", data["pp_ResponseMessage"])

	return s.finishCallback(c, orderID, success, data["pp_TxnRefNo"], note)
}

func (s *PaymentService) finishCallback(c *fiber.Ctx, orderID string, success bool, externalRef, note string) error {
	err := s.SettlePurchase(orderID, success, externalRef, note)
	switch {
	case errors.Is(err, ErrDuplicateCallback):
		// Gateway retry against a settled transaction; acknowledge without
		// re-applying anything.
		return c.JSON(fiber.Map{"status": "success"})
	case errors.Is(err, ErrTxnNotFound):
		return c.JSON(fiber.Map{"status": "error", "message": "transaction not found"})
	case err != nil:
		log.Printf("[Payment] callback settlement failed for %s: %v", orderID, err)
		return c.Status(500).JSON(fiber.Map{"status": "error"})
	}
	if success {
		return c.JSON(fiber.Map{"status": "success"})
	}
	return c.JSON(fiber.Map{"status": "failed"})
}

// SettlePurchase applies a gateway verdict to a purchase transaction exactly
// once. The transaction row is locked and its status checked first: terminal
// rows return ErrDuplicateCallback so retried webhooks are no-ops. On success
// the wallet credit, snapshot update and status flip commit atomically.
func (s *PaymentService) SettlePurchase(transactionID string, success bool, externalRef, note string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		err := forUpdate(tx).
			First(&txn, "id = ?", transactionID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTxnNotFound
			}
			return err
		}

		if txn.Status.IsTerminal() {
			return ErrDuplicateCallback
		}

		if !success {
			now := time.Now().UTC()
			return tx.Model(&txn).Updates(map[string]interface{}{
				"status":       models.TransactionFailed,
				"notes":        note,
				"completed_at": &now,
			}).Error
		}

		if _, err := s.Wallets.GetOrCreateWallet(tx, txn.UserID); err != nil {
			return err
		}
		wallet, err := s.Wallets.lockWallet(tx, txn.UserID)
		if err != nil {
			return err
		}

		balanceBefore := wallet.TotalBalance()
		wallet.AddPurchased(txn.TokenAmount, txn.AmountPKR)
		if err := tx.Save(wallet).Error; err != nil {
			return fmt.Errorf("save wallet: %w", err)
		}

		now := time.Now().UTC()
		// The balance snapshot is taken at the moment of the credit, not at
		// initiation, so completed rows always satisfy
		// balance_after - balance_before == token_amount.
		return tx.Model(&txn).Updates(map[string]interface{}{
			"status":            models.TransactionCompleted,
			"payment_reference": externalRef,
			"balance_before":    balanceBefore,
			"balance_after":     wallet.TotalBalance(),
			"completed_at":      &now,
		}).Error
	})
}

// ListProducts returns the active in-game product catalog.
func (s *PaymentService) ListProducts(c *fiber.Ctx) error {
	query := s.DB.Where("is_active = ?", true)
	if t := c.Query("product_type"); t != "" {
		query = query.Where("product_type = ?", t)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var products []models.Product
	if err := query.Order("token_price ASC").Find(&products).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load products"})
	}
	return c.JSON(fiber.Map{"products": products})
}

// BuyProduct spends wallet tokens on an in-game product (season pass or
// UC/diamond pack) and records a subscription-kind ledger row.
func (s *PaymentService) BuyProduct(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var product models.Product
	if err := s.DB.First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "product not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load product"})
	}
	if !product.IsActive {
		return c.Status(400).JSON(fiber.Map{"error": "product is not available"})
	}

	var txn *models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		_, t, err := s.Wallets.Debit(tx, userID, product.TokenPrice, models.DebitPurchasedFirst, DebitOptions{
			Type:        models.TransactionTypeSubscription,
			Description: fmt.Sprintf("Purchase: %s", product.Name),
		})
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return walletErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        fmt.Sprintf("purchased %s for %d tokens", product.Name, product.TokenPrice),
		"transaction_id": txn.ID,
		"new_balance":    txn.BalanceAfter,
	})
}
