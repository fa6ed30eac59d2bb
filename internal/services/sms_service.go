package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/example/lotus/internal/models"
)

// SMSService sends notifications through the bulk SMS gateway.
type SMSService struct {
	apiKey        string
	senderID      string
	baseURL       string
	operatorPhone string
	client        *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(apiKey, senderID, baseURL, operatorPhone string) *SMSService {
	return &SMSService{
		apiKey:        apiKey,
		senderID:      senderID,
		baseURL:       baseURL,
		operatorPhone: operatorPhone,
		client:        http.DefaultClient,
	}
}

// Message is one {to, message} pair in a gateway batch.
type Message struct {
	To   string `json:"to"`
	Text string `json:"message"`
}

type smsBatchRequest struct {
	APIKey   string    `json:"api_key"`
	SenderID string    `json:"senderid"`
	Messages []Message `json:"messages"`
}

// SendBatch posts a batch of messages to the gateway.
func (s *SMSService) SendBatch(messages []Message) error {
	if s.apiKey == "" {
		log.Println("[SMS] API key not configured, skipping send")
		return nil
	}

	payload := smsBatchRequest{
		APIKey:   s.apiKey,
		SenderID: s.senderID,
		Messages: messages,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.baseURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[SMS] failed to send batch: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SMS] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyOrderPlaced sends the customer confirmation and the operator
// alert for a freshly persisted order in one gateway batch.
func (s *SMSService) NotifyOrderPlaced(order *models.Order) error {
	messages := []Message{
		{To: order.CustomerPhone, Text: CustomerOrderMessage(order)},
	}
	if s.operatorPhone != "" {
		messages = append(messages, Message{To: s.operatorPhone, Text: OperatorOrderMessage(order)})
	}
	return s.SendBatch(messages)
}

// CustomerOrderMessage builds the confirmation text: order code, total,
// first three item names with a "+N more" suffix when the order is longer.
func CustomerOrderMessage(order *models.Order) string {
	names := make([]string, 0, 3)
	for i, item := range order.Items {
		if i == 3 {
			break
		}
		names = append(names, item.Name)
	}

	itemSummary := strings.Join(names, ", ")
	if extra := len(order.Items) - len(names); extra > 0 {
		itemSummary = fmt.Sprintf("%s +%d more", itemSummary, extra)
	}

	return fmt.Sprintf("Lotus: order %s confirmed. Total %s. Items: %s. Thank you for shopping with us!",
		order.OrderCode,
		FormatAmount(order.Total, ""),
		itemSummary,
	)
}

// OperatorOrderMessage builds the operator alert: full item list,
// customer contact, total and payment method.
func OperatorOrderMessage(order *models.Order) string {
	var items strings.Builder
	for i, item := range order.Items {
		label := item.Name
		if item.Color != "" {
			label = fmt.Sprintf("%s/%s", label, item.Color)
		}
		if item.Size != "" {
			label = fmt.Sprintf("%s/%s", label, item.Size)
		}
		items.WriteString(fmt.Sprintf("%d. %s x%d; ", i+1, label, item.Quantity))
	}

	return fmt.Sprintf("New order %s: %s%s, %s, %s. Total %s, payment %s.",
		order.OrderCode,
		items.String(),
		order.CustomerName,
		order.CustomerPhone,
		order.CustomerAddress,
		FormatAmount(order.Total, ""),
		order.PaymentMethod,
	)
}

// FormatAmount formats an integer amount with thousand separators and a
// currency suffix.
func FormatAmount(amount int, currency string) string {
	if currency == "" {
		currency = "BDT"
	}

	str := fmt.Sprintf("%d", amount)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign = "-"
		str = str[1:]
	}

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return sign + result.String() + " " + currency
}
