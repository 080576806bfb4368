//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledger-api/internal/integration/adapters"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence/model"
)

const defaultPassword = "SecurePass123!"

var accountPlaceholder = regexp.MustCompile(`\{\{account:([^}]+)\}\}`)

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	test := &testContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, test.before(ctx)
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		test.after()
		return ctx, nil
	})

	// Background steps
	ctx.Given(`^the API server is running$`, test.theAPIServerIsRunning)

	// User and ledger setup steps
	ctx.Given(`^I am registered as "([^"]*)"$`, test.iAmRegisteredAs)
	ctx.Given(`^I have an account "([^"]*)" with opening balance "([^"]*)"$`, test.iHaveAnAccountWithOpeningBalance)
	ctx.Given(`^I have an? (INCOME|EXPENSE) of "([^"]*)" on account "([^"]*)"$`, test.iHaveATransactionOnAccount)
	ctx.Given(`^the current user is blocked$`, test.theCurrentUserIsBlocked)

	// Header steps
	ctx.Given(`^the header is empty$`, test.theHeaderIsEmpty)
	ctx.Given(`^the header contains the key "([^"]*)" with "([^"]*)"$`, test.theHeaderContainsTheKeyWith)

	// Request steps
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, test.iSendARequestToWithBody)
	ctx.When(`^I send (\d+) "([^"]*)" requests to "([^"]*)" with body:$`, test.iSendRequestsToWithBody)
	ctx.When(`^I upload a receipt of (\d+) bytes to "([^"]*)"$`, test.iUploadAReceiptOfBytesTo)

	// Background job steps
	ctx.When(`^the recurring processor runs$`, test.theRecurringProcessorRuns)
	ctx.When(`^the notification dispatcher runs$`, test.theNotificationDispatcherRuns)

	// Response assertion steps
	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response should be JSON$`, test.theResponseShouldBeJSON)
	ctx.Then(`^the response should contain "([^"]*)"$`, test.theResponseShouldContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)
	ctx.Then(`^the response header "([^"]*)" should be "([^"]*)"$`, test.theResponseHeaderShouldBe)
	ctx.Then(`^the response header "([^"]*)" should exist$`, test.theResponseHeaderShouldExist)

	// Ledger assertion steps
	ctx.Then(`^the balance of account "([^"]*)" should be "([^"]*)"$`, test.theBalanceOfAccountShouldBe)
	ctx.Then(`^a cache invalidation should be published for "([^"]*)"$`, test.aCacheInvalidationShouldBePublishedFor)
	ctx.Then(`^the email provider should have received (\d+) emails?$`, test.theEmailProviderShouldHaveReceivedEmails)

	// Database assertion steps
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, test.theDbShouldContainObjectsInTheTable)
	ctx.Then(`^the db should contain (\d+) objects in "([^"]*)" with the values$`, test.theDbShouldContainObjectsInWithTheValues)
}

func (t *testContext) theAPIServerIsRunning() error {
	resp, err := t.client.Get(t.env.server.URL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// iAmRegisteredAs registers through the API, keeps the issued tokens and
// records the accounts created with the user.
func (t *testContext) iAmRegisteredAs(email string) error {
	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": defaultPassword,
	})
	if err := t.executeRequest(http.MethodPost, "/api/v1/auth/register", payload); err != nil {
		return err
	}
	if t.response.status != http.StatusCreated {
		return fmt.Errorf("registration failed with %d: %v", t.response.status, t.response.body)
	}

	body := t.response.body.(map[string]any)
	t.accessToken, _ = body["access_token"].(string)
	t.refreshToken, _ = body["refresh_token"].(string)
	userID, err := uuid.Parse(fmt.Sprint(getFieldValue(body, "user.id")))
	if err != nil {
		return fmt.Errorf("registration returned no user id: %w", err)
	}
	t.currentUserID = userID

	var accounts []model.AccountModel
	if err := t.env.db.DbConn.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return err
	}
	for _, account := range accounts {
		t.accounts[account.Name] = account.ID
	}
	return nil
}

func (t *testContext) iHaveAnAccountWithOpeningBalance(name, balance string) error {
	payload, _ := json.Marshal(map[string]any{
		"name":            name,
		"type":            "SAVINGS",
		"opening_balance": json.Number(balance),
	})
	if err := t.executeRequest(http.MethodPost, "/api/v1/accounts", payload); err != nil {
		return err
	}
	if t.response.status != http.StatusCreated {
		return fmt.Errorf("account creation failed with %d: %v", t.response.status, t.response.body)
	}

	id, err := uuid.Parse(fmt.Sprint(getFieldValue(t.response.body, "id")))
	if err != nil {
		return err
	}
	t.accounts[name] = id
	return nil
}

// iHaveATransactionOnAccount posts directly to the store, bypassing the admission gate.
func (t *testContext) iHaveATransactionOnAccount(transactionType, amount, accountName string) error {
	accountID, ok := t.accounts[accountName]
	if !ok {
		return fmt.Errorf("unknown account %q", accountName)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	delta := value
	if transactionType == "EXPENSE" {
		delta = value.Neg()
	}

	now := time.Now().UTC()
	txn := &model.TransactionModel{
		ID:          uuid.New(),
		UserID:      t.currentUserID,
		AccountID:   accountID,
		Type:        transactionType,
		Amount:      value,
		Date:        now,
		Description: "Seeded",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return t.env.db.DbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		t.lastTransactionID = txn.ID
		t.transactionIDs = append(t.transactionIDs, txn.ID)
		return tx.Model(&model.AccountModel{}).
			Where("id = ?", accountID).
			Update("balance", gorm.Expr("balance + ?", delta)).Error
	})
}

func (t *testContext) theCurrentUserIsBlocked() error {
	gate := adapters.NewRedisAdmissionGate(t.env.redis, 1, time.Hour)
	return gate.Block(context.Background(), t.currentUserID)
}

func (t *testContext) theHeaderIsEmpty() error {
	t.headers = make(map[string]string)
	t.accessToken = ""
	return nil
}

func (t *testContext) theHeaderContainsTheKeyWith(key, value string) error {
	t.headers[key] = value
	return nil
}

func (t *testContext) iSendARequestTo(method, path string) error {
	return t.executeRequest(method, t.replacePlaceholders(path), nil)
}

func (t *testContext) iSendARequestToWithBody(method, path string, body *godog.DocString) error {
	var payload []byte
	if body != nil && body.Content != "" {
		payload = []byte(t.replacePlaceholders(body.Content))
	}
	return t.executeRequest(method, t.replacePlaceholders(path), payload)
}

// iSendRequestsToWithBody repeats a request and keeps the last response.
func (t *testContext) iSendRequestsToWithBody(count int, method, path string, body *godog.DocString) error {
	for i := 0; i < count; i++ {
		if err := t.iSendARequestToWithBody(method, path, body); err != nil {
			return err
		}
	}
	return nil
}

// iUploadAReceiptOfBytesTo sends a PNG-signed file of the given size as multipart form data.
func (t *testContext) iUploadAReceiptOfBytesTo(size int, path string) error {
	content := make([]byte, size)
	copy(content, []byte("\x89PNG\r\n\x1a\n"))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="receipt.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, t.env.server.URL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return t.do(req)
}

func (t *testContext) theRecurringProcessorRuns() error {
	worker := t.env.injector.RecurringWorker
	if worker == nil {
		return errors.New("recurring worker is disabled")
	}
	worker.RunOnce(context.Background())
	return nil
}

func (t *testContext) theNotificationDispatcherRuns() error {
	dispatcher := t.env.injector.Dispatcher
	if dispatcher == nil {
		return errors.New("notification dispatcher is disabled")
	}
	dispatcher.DispatchNow(context.Background())
	return nil
}

func (t *testContext) replacePlaceholders(content string) string {
	content = strings.ReplaceAll(content, "{{access_token}}", t.accessToken)
	content = strings.ReplaceAll(content, "{{refresh_token}}", t.refreshToken)
	content = strings.ReplaceAll(content, "{{user_id}}", t.currentUserID.String())
	content = strings.ReplaceAll(content, "{{transaction_id}}", t.lastTransactionID.String())
	content = strings.ReplaceAll(content, "{{random_id}}", uuid.NewString())

	ids := make([]string, len(t.transactionIDs))
	for i, id := range t.transactionIDs {
		ids[i] = strconv.Quote(id.String())
	}
	content = strings.ReplaceAll(content, "{{transaction_ids}}", "["+strings.Join(ids, ", ")+"]")

	return accountPlaceholder.ReplaceAllStringFunc(content, func(match string) string {
		name := accountPlaceholder.FindStringSubmatch(match)[1]
		if id, ok := t.accounts[name]; ok {
			return id.String()
		}
		return match
	})
}

func (t *testContext) executeRequest(method, path string, payload []byte) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, t.env.server.URL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

// do sends req with the scenario's headers and records the response.
// JSON numbers are kept verbatim so money compares as written.
func (t *testContext) do(req *http.Request) error {
	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	t.response = &response{
		status:  resp.StatusCode,
		headers: resp.Header,
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var decoded map[string]any
	if err := decoder.Decode(&decoded); err != nil {
		t.response.body = string(raw)
		return nil
	}
	t.response.body = decoded

	// Transaction responses carry an account_id; remember them for later steps.
	if _, isTransaction := decoded["account_id"]; isTransaction {
		if id, err := uuid.Parse(fmt.Sprint(decoded["id"])); err == nil {
			t.lastTransactionID = id
			t.transactionIDs = append(t.transactionIDs, id)
		}
	}
	return nil
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if t.response.status != expectedStatus {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expectedStatus, t.response.status, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldBeJSON() error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if _, ok := t.response.body.(map[string]any); !ok {
		return fmt.Errorf("response is not JSON: %v", t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldContain(field string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}
	if _, exists := body[field]; !exists {
		return fmt.Errorf("response does not contain field '%s': %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expectedValue string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}

	value := getFieldValue(body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}

	expectedValue = t.replacePlaceholders(expectedValue)
	if actual := fmt.Sprintf("%v", value); actual != expectedValue {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expectedValue, actual)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}
	if getFieldValue(body, field) == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseHeaderShouldBe(header, expected string) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if actual := t.response.headers.Get(header); actual != expected {
		return fmt.Errorf("header '%s' expected '%s', got '%s'", header, expected, actual)
	}
	return nil
}

func (t *testContext) theResponseHeaderShouldExist(header string) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if t.response.headers.Get(header) == "" {
		return fmt.Errorf("header '%s' not found", header)
	}
	return nil
}

func (t *testContext) jsonBody() (map[string]any, error) {
	if t.response == nil {
		return nil, errors.New("no response received")
	}
	body, ok := t.response.body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is not a JSON object: %v", t.response.body)
	}
	return body, nil
}

func (t *testContext) theBalanceOfAccountShouldBe(name, expected string) error {
	id, ok := t.accounts[name]
	if !ok {
		return fmt.Errorf("unknown account %q", name)
	}

	var account model.AccountModel
	if err := t.env.db.DbConn.First(&account, "id = ?", id).Error; err != nil {
		return err
	}

	want, err := decimal.NewFromString(expected)
	if err != nil {
		return err
	}
	if !account.Balance.Equal(want) {
		return fmt.Errorf("account %q balance expected %s, got %s", name, want, account.Balance)
	}
	return nil
}

func (t *testContext) aCacheInvalidationShouldBePublishedFor(path string) error {
	path = t.replacePlaceholders(path)
	if !t.invalidations.waitFor(path, 2*time.Second) {
		return fmt.Errorf("no invalidation published for %s", path)
	}
	return nil
}

func (t *testContext) theEmailProviderShouldHaveReceivedEmails(count int) error {
	received := t.env.resend.Requests(http.MethodPost, "/emails")
	if len(received) != count {
		return fmt.Errorf("expected %d emails, got %d", count, len(received))
	}
	return nil
}

func (t *testContext) theDbShouldContainObjectsInTheTable(quantity int, table string) error {
	return t.countRows(quantity, table, nil)
}

func (t *testContext) theDbShouldContainObjectsInWithTheValues(quantity int, table string, content *godog.DocString) error {
	var criteria map[string]any
	if err := json.Unmarshal([]byte(t.replacePlaceholders(content.Content)), &criteria); err != nil {
		return err
	}
	return t.countRows(quantity, table, criteria)
}

func (t *testContext) countRows(quantity int, table string, criteria map[string]any) error {
	entity, ok := t.env.db.GetModel(table)
	if !ok {
		return fmt.Errorf("table '%s' not found in models", table)
	}

	entityType := reflect.TypeOf(entity).Elem()
	slicePtr := reflect.New(reflect.SliceOf(entityType))

	query := t.env.db.DbConn.Unscoped()
	for key, value := range criteria {
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}
	if err := query.Find(slicePtr.Interface()).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if count := slicePtr.Elem().Len(); count != quantity {
		return fmt.Errorf("expected %d objects in '%s' with criteria %v, got %d", quantity, table, criteria, count)
	}
	return nil
}

// getFieldValue resolves a dot-separated path; numeric segments index arrays.
func getFieldValue(object any, dotSeparatedField string) any {
	field := object
	for _, segment := range strings.Split(dotSeparatedField, ".") {
		switch current := field.(type) {
		case map[string]any:
			field = current[segment]
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(current) {
				return nil
			}
			field = current[index]
		default:
			return nil
		}
	}
	return field
}
