package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/ankit76350/whistleblower/internal/api"
	"github.com/ankit76350/whistleblower/internal/auth"
	"github.com/ankit76350/whistleblower/internal/caseview"
	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/livefeed"
	"github.com/ankit76350/whistleblower/internal/models"
	"github.com/ankit76350/whistleblower/internal/session"
)

const usage = `Usage: whistleblower <command> [args]

Reporter commands:
  submit <tenantId> <subject> <message> [files...]   submit a new report
  open <secretKey>                                   view a case thread
  reply <secretKey> <message> [files...]             reply on a case thread

Staff commands (require TOKEN env, see login):
  login <email>                                      obtain a staff token
  inbox <tenantId>                                   list a tenant's reports
  case <tenantId> <reportId>                         view a case thread
  staff-reply <tenantId> <reportId> <message>        reply as compliance team
  status <reportId> <NEW|RECEIVED|IN_PROGRESS|CLOSED|CANCELED>

Admin commands:
  tenants list
  tenants add <email> <companyName> [role]
  tenants update <tenantId> <email> <companyName> [role]
  tenants delete <tenantId>
`

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "submit":
		err = cmdSubmit(ctx, os.Args[2:])
	case "open":
		err = cmdOpen(ctx, os.Args[2:])
	case "reply":
		err = cmdReply(ctx, os.Args[2:])
	case "login":
		err = cmdLogin(ctx, os.Args[2:])
	case "inbox":
		err = cmdInbox(ctx, os.Args[2:])
	case "case":
		err = cmdStaffCase(ctx, os.Args[2:])
	case "staff-reply":
		err = cmdStaffReply(ctx, os.Args[2:])
	case "status":
		err = cmdStatus(ctx, os.Args[2:])
	case "tenants":
		err = cmdTenants(ctx, os.Args[2:])
	default:
		fmt.Println("Unknown command")
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func reporterClient() *api.Client {
	return api.NewClient(config.APIBaseURL(), auth.Anonymous)
}

func staffClient() (*api.Client, error) {
	token := os.Getenv("TOKEN")
	src := auth.NewSessionTokenSource()
	if err := src.SetToken(token); err != nil {
		return nil, err
	}
	return api.NewClient(config.APIBaseURL(), src), nil
}

func dialLive(ctx context.Context, endpoint, reportID string, role models.MessageSender) (caseview.LiveChannel, error) {
	return livefeed.Dial(ctx, endpoint, reportID, role)
}

func readUploads(paths []string) ([]api.Upload, error) {
	uploads := make([]api.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, api.Upload{Name: filepath.Base(p), Content: data})
	}
	return uploads, nil
}

func cmdSubmit(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: submit <tenantId> <subject> <message> [files...]")
	}
	uploads, err := readUploads(args[3:])
	if err != nil {
		return err
	}

	report, err := reporterClient().SubmitReport(ctx, args[0], args[1], args[2], uploads)
	if err != nil {
		return err
	}

	fmt.Printf("Report submitted. ID: %s\n", report.ReportID)
	fmt.Println("Your one-time secret key (store it safely, it will not be shown again):")
	fmt.Println(report.SecretKey)
	return nil
}

func cmdOpen(ctx context.Context, args []string) error {
	store := session.NewStore(config.SessionNamespace)
	navKey := ""
	if len(args) > 0 {
		navKey = args[0]
	}
	key, err := caseview.ResolveReporterKey(navKey, store)
	if errors.Is(err, session.ErrNoSecretKey) {
		fmt.Println("No secret key in this session. Enter your key: whistleblower open <secretKey>")
		return nil
	}
	if err != nil {
		return err
	}

	v, err := caseview.Open(ctx, caseview.Params{
		Transport:  reporterClient(),
		Dial:       dialLive,
		WSEndpoint: config.WSEndpoint(),
		Role:       models.SenderReporter,
		SecretKey:  key,
	})
	if err != nil {
		return err
	}
	defer v.Close()

	renderView(v)
	return nil
}

func cmdReply(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: reply <secretKey> <message> [files...]")
	}
	uploads, err := readUploads(args[2:])
	if err != nil {
		return err
	}

	v, err := caseview.Open(ctx, caseview.Params{
		Transport:  reporterClient(),
		Dial:       dialLive,
		WSEndpoint: config.WSEndpoint(),
		Role:       models.SenderReporter,
		SecretKey:  args[0],
	})
	if err != nil {
		return err
	}
	defer v.Close()

	if v.State() == caseview.StateSessionExpired {
		return errors.New("could not load the report; the secret key may be invalid")
	}

	msg, err := v.SendReply(ctx, args[1], uploads)
	if err != nil {
		return err
	}
	fmt.Printf("Reply sent (message %s)\n", msg.ID)
	return nil
}

func cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: login <email>")
	}

	body, _ := json.Marshal(map[string]string{"email": args[0]})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.APIBaseURL()+"/admin/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	fmt.Println("Export this token for staff commands:")
	fmt.Printf("export TOKEN=%s\n", out.Token)
	return nil
}

func cmdInbox(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: inbox <tenantId>")
	}
	client, err := staffClient()
	if err != nil {
		return err
	}

	reports, err := client.ListReports(ctx, args[0])
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("Inbox is empty.")
		return nil
	}
	for _, r := range reports {
		fmt.Printf("%-36s  %-12s  %s\n", r.ReportID, r.Status, r.Subject)
	}
	return nil
}

func cmdStaffCase(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: case <tenantId> <reportId>")
	}
	client, err := staffClient()
	if err != nil {
		return err
	}

	v, err := caseview.Open(ctx, caseview.Params{
		Transport:  client,
		Dial:       dialLive,
		WSEndpoint: config.WSEndpoint(),
		Role:       models.SenderComplianceTeam,
		TenantID:   args[0],
		ReportID:   args[1],
	})
	if err != nil {
		return err
	}
	defer v.Close()

	renderView(v)
	return nil
}

func cmdStaffReply(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: staff-reply <tenantId> <reportId> <message>")
	}
	client, err := staffClient()
	if err != nil {
		return err
	}

	v, err := caseview.Open(ctx, caseview.Params{
		Transport:  client,
		Dial:       dialLive,
		WSEndpoint: config.WSEndpoint(),
		Role:       models.SenderComplianceTeam,
		TenantID:   args[0],
		ReportID:   args[1],
	})
	if err != nil {
		return err
	}
	defer v.Close()

	msg, err := v.SendReply(ctx, args[2], nil)
	if err != nil {
		return err
	}
	fmt.Printf("Reply sent (message %s)\n", msg.ID)
	return nil
}

func cmdStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: status <reportId> <newStatus>")
	}
	status, err := models.ParseReportStatus(args[1])
	if err != nil {
		return err
	}
	client, err := staffClient()
	if err != nil {
		return err
	}

	report, err := client.SetStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	fmt.Printf("Report %s is now %s\n", report.ReportID, report.Status)
	return nil
}

func cmdTenants(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: tenants <list|add|update|delete> ...")
	}
	client, err := staffClient()
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		tenants, err := client.Tenants(ctx)
		if err != nil {
			return err
		}
		for _, t := range tenants {
			fmt.Printf("%-36s  %-30s  %s\n", t.TenantID, t.Email, t.CompanyName)
		}
		return nil

	case "add":
		if len(args) < 3 {
			return errors.New("usage: tenants add <email> <companyName> [role]")
		}
		role := "ADMIN"
		if len(args) > 3 {
			role = args[3]
		}
		t, err := client.AddTenant(ctx, args[1], args[2], role)
		if err != nil {
			return err
		}
		fmt.Printf("Tenant created: %s\n", t.TenantID)
		return nil

	case "update":
		if len(args) < 4 {
			return errors.New("usage: tenants update <tenantId> <email> <companyName> [role]")
		}
		role := "ADMIN"
		if len(args) > 4 {
			role = args[4]
		}
		t, err := client.UpdateTenant(ctx, args[1], models.Tenant{Email: args[2], CompanyName: args[3], Role: role, Active: true})
		if err != nil {
			return err
		}
		fmt.Printf("Tenant updated: %s\n", t.TenantID)
		return nil

	case "delete":
		if len(args) < 2 {
			return errors.New("usage: tenants delete <tenantId>")
		}
		t, err := client.DeleteTenant(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Tenant deleted: %s\n", t.TenantID)
		return nil

	default:
		return fmt.Errorf("unknown tenants subcommand %q", args[0])
	}
}

func renderView(v *caseview.View) {
	switch v.State() {
	case caseview.StateSessionExpired:
		fmt.Println("Error loading report. Session may have expired.")
		return
	case caseview.StateLoading:
		fmt.Println("Loading secure thread...")
		return
	}

	report := v.Report()
	liveLabel := "Offline"
	if v.IsLive() {
		liveLabel = "Live"
	}
	fmt.Printf("%s  [%s]  (%s)\n", report.Subject, report.Status, liveLabel)
	fmt.Printf("Report ID: %s\n\n", report.ReportID)

	for _, e := range v.Entries() {
		fmt.Printf("[%s] %s: %s\n", e.TimeLabel(), e.Sender, e.Message)
		for _, att := range e.Attachments {
			fmt.Printf("    attachment: %s\n", att.Name())
		}
	}
}
