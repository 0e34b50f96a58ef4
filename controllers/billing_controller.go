package controller

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/subscription"

	"boardly/config"
	"boardly/models"
	"boardly/utils"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

type CheckoutRequest struct {
	PlanName string `json:"plan_name" validate:"required,oneof=pro business"`
}

// GetPlans returns the purchasable plans with display pricing
func GetPlans(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := config.DB.Order("price ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load plans",
		})
	}

	for i := range plans {
		plans[i].DisplayPrice = "$" + strconv.Itoa(plans[i].Price/100)
	}

	return c.JSON(utils.SuccessResponse(plans))
}

// GetCurrentPlan returns the caller's stored plan and expiry
func GetCurrentPlan(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	return c.JSON(fiber.Map{
		"plan_name":       user.PlanName,
		"plan_expires_at": user.PlanExpiresAt,
		"plan_started_at": user.PlanStartedAt,
	})
}

// CreateCheckoutSession starts a Stripe subscription checkout for the
// requested paid plan
func CreateCheckoutSession(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	priceID := priceIDForPlan(req.PlanName)
	if priceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown plan",
		})
	}

	var plan models.Plan
	if err := config.DB.Where("name = ?", req.PlanName).First(&plan).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Plan not found", "plan_name", req.PlanName)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	customerID, err := getOrCreateStripeCustomer(user)
	if err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to create Stripe customer", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start checkout",
		})
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(config.AppConfig.AppURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(config.AppConfig.AppURL + "/billing/cancel"),
		Metadata: map[string]string{
			"user_id":   strconv.Itoa(int(user.ID)),
			"plan_name": req.PlanName,
		},
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to create checkout session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start checkout",
		})
	}

	transaction := models.PlanTransaction{
		UserID:                  user.ID,
		PlanID:                  &plan.ID,
		Amount:                  plan.Price,
		Currency:                "usd",
		PaymentStatus:           "pending",
		Description:             "Subscription to " + plan.Name + " plan",
		StripeCheckoutSessionID: session.ID,
	}
	if err := config.DB.Create(&transaction).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to create transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record transaction",
		})
	}

	return c.JSON(fiber.Map{
		"checkout_url":   session.URL,
		"session_id":     session.ID,
		"transaction_id": transaction.ID,
	})
}

// CancelSubscription cancels the caller's Stripe subscription at period
// end. The plan stays active until PlanExpiresAt passes.
func CancelSubscription(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if user.StripeSubscriptionID == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "No active subscription",
		})
	}

	_, err := subscription.Update(*user.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to cancel subscription", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel subscription",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Subscription will end at the current period's close",
		"expires_at": user.PlanExpiresAt,
	})
}

// HandleBillingWebhook processes Stripe subscription lifecycle events
func HandleBillingWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to construct Stripe event", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			config.DB.Logger.Error(c.Context(), "Failed to parse checkout session", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing checkout session",
			})
		}
		return handleCheckoutCompleted(c, &session)

	case "invoice.paid":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			config.DB.Logger.Error(c.Context(), "Failed to parse invoice", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing invoice",
			})
		}
		return handleInvoicePaid(c, &invoice)

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			config.DB.Logger.Error(c.Context(), "Failed to parse invoice", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing invoice",
			})
		}
		return handleInvoiceFailed(c, &invoice)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			config.DB.Logger.Error(c.Context(), "Failed to parse subscription", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing subscription",
			})
		}
		return handleSubscriptionDeleted(c, &sub)

	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

// handleCheckoutCompleted activates the purchased plan
func handleCheckoutCompleted(c *fiber.Ctx, session *stripe.CheckoutSession) error {
	var transaction models.PlanTransaction
	if err := config.DB.Where("stripe_checkout_session_id = ?", session.ID).First(&transaction).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Transaction not found", "session_id", session.ID)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	transaction.PaymentStatus = "succeeded"
	if session.Subscription != nil {
		transaction.StripeSubscriptionID = session.Subscription.ID
	}
	if err := config.DB.Save(&transaction).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to update transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update transaction",
		})
	}

	var user models.User
	if err := config.DB.First(&user, transaction.UserID).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "User not found", "user_id", transaction.UserID)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	planName := session.Metadata["plan_name"]
	if planName == "" && transaction.PlanID != nil {
		var plan models.Plan
		if err := config.DB.First(&plan, *transaction.PlanID).Error; err == nil {
			planName = plan.Name
		}
	}

	now := time.Now()
	expires := periodEndFor(session.Subscription, now)
	user.PlanName = planName
	user.PlanStartedAt = &now
	user.PlanUpdatedAt = &now
	user.PlanExpiresAt = &expires
	if session.Subscription != nil {
		user.StripeSubscriptionID = &session.Subscription.ID
	}

	if err := config.DB.Save(&user).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to update user plan", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user plan",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// handleInvoicePaid extends the plan expiry on subscription renewal
func handleInvoicePaid(c *fiber.Ctx, invoice *stripe.Invoice) error {
	if invoice.Subscription == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	var user models.User
	if err := config.DB.Where("stripe_subscription_id = ?", invoice.Subscription.ID).First(&user).Error; err != nil {
		// A renewal for a subscription we never recorded; nothing to do
		return c.SendStatus(fiber.StatusOK)
	}

	sub, err := subscription.Get(invoice.Subscription.ID, nil)
	if err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to fetch subscription", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscription",
		})
	}

	now := time.Now()
	expires := time.Unix(sub.CurrentPeriodEnd, 0)
	user.PlanExpiresAt = &expires
	user.PlanUpdatedAt = &now
	if err := config.DB.Save(&user).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to extend plan", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to extend plan",
		})
	}

	transaction := models.PlanTransaction{
		UserID:               user.ID,
		Amount:               int(invoice.AmountPaid),
		Currency:             string(invoice.Currency),
		PaymentStatus:        "succeeded",
		Description:          "Subscription renewal",
		StripeSubscriptionID: invoice.Subscription.ID,
		StripeInvoiceID:      invoice.ID,
	}
	if invoice.HostedInvoiceURL != "" {
		transaction.ReceiptURL = invoice.HostedInvoiceURL
	}
	if err := config.DB.Create(&transaction).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to record renewal", "error", err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// handleInvoiceFailed records the failed renewal. The plan is not
// downgraded here; expiry passing unpaid is what downgrades it, either
// at read time or when the sync worker runs.
func handleInvoiceFailed(c *fiber.Ctx, invoice *stripe.Invoice) error {
	if invoice.Subscription == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	var user models.User
	if err := config.DB.Where("stripe_subscription_id = ?", invoice.Subscription.ID).First(&user).Error; err != nil {
		return c.SendStatus(fiber.StatusOK)
	}

	transaction := models.PlanTransaction{
		UserID:               user.ID,
		Amount:               int(invoice.AmountDue),
		Currency:             string(invoice.Currency),
		PaymentStatus:        "failed",
		Description:          "Subscription renewal failed",
		StripeSubscriptionID: invoice.Subscription.ID,
		StripeInvoiceID:      invoice.ID,
	}
	if err := config.DB.Create(&transaction).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to record failed renewal", "error", err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// handleSubscriptionDeleted ends the paid plan immediately
func handleSubscriptionDeleted(c *fiber.Ctx, sub *stripe.Subscription) error {
	var user models.User
	if err := config.DB.Where("stripe_subscription_id = ?", sub.ID).First(&user).Error; err != nil {
		return c.SendStatus(fiber.StatusOK)
	}

	now := time.Now()
	user.PlanName = "free"
	user.PlanExpiresAt = nil
	user.PlanUpdatedAt = &now
	user.StripeSubscriptionID = nil
	if err := config.DB.Save(&user).Error; err != nil {
		config.DB.Logger.Error(c.Context(), "Failed to downgrade user", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to downgrade user",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// GetTransactions lists the caller's billing history
func GetTransactions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var transactions []models.PlanTransaction
	if err := config.DB.Preload("Plan").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transactions",
		})
	}

	return c.JSON(utils.SuccessResponse(transactions))
}

func priceIDForPlan(planName string) string {
	switch planName {
	case "pro":
		return config.AppConfig.StripeProPriceID
	case "business":
		return config.AppConfig.StripeBusinessPriceID
	default:
		return ""
	}
}

// periodEndFor reads the subscription's period end, falling back to a
// month from now when the expanded subscription is not on the event
func periodEndFor(sub *stripe.Subscription, now time.Time) time.Time {
	if sub != nil && sub.CurrentPeriodEnd > 0 {
		return time.Unix(sub.CurrentPeriodEnd, 0)
	}
	return now.AddDate(0, 1, 0)
}

// getOrCreateStripeCustomer returns the user's Stripe customer,
// creating one on first purchase
func getOrCreateStripeCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != nil {
		return *user.StripeCustomerID, nil
	}

	var name string
	if user.Name != nil {
		name = *user.Name
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(name),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(int(user.ID)),
		},
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	user.StripeCustomerID = &cust.ID
	if err := config.DB.Save(user).Error; err != nil {
		return "", err
	}

	return cust.ID, nil
}
