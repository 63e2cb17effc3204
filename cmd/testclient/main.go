package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/codelf/pkg/service"
)

var (
	serverAddr = flag.String("addr", "localhost:50051", "gRPC server address")
	query      = flag.String("query", "", "Query to look up, e.g. 摄像头 or \"user name\"")
	page       = flag.Int("page", 1, "Result page")
	langs      = flag.String("lang", "", "Comma-separated programming languages, e.g. Go,Python")
	pages      = flag.Int("pages", 0, "Run an async lookup job over this many pages instead")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if *query == "" {
		logger.Fatal("-query must be provided")
	}

	var langList []interface{}
	for _, l := range strings.Split(*langs, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langList = append(langList, l)
		}
	}

	logger.WithFields(logrus.Fields{
		"server": *serverAddr,
		"query":  *query,
		"page":   *page,
		"lang":   *langs,
	}).Info("Connecting to codelf server...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to server")
	}
	defer conn.Close()

	client := service.NewVariableServiceClient(conn)

	req, err := structpb.NewStruct(map[string]interface{}{
		"query": *query,
		"page":  *page,
		"lang":  langList,
		"pages": *pages,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to build request")
	}

	startTime := time.Now()
	var result *structpb.Struct
	if *pages > 0 {
		result = runJob(ctx, client, req, logger)
	} else {
		result, err = client.RequestVariable(ctx, req)
		if err != nil {
			logger.WithError(err).Fatal("RequestVariable failed")
		}
	}
	duration := time.Since(startTime)

	printResult(result)

	logger.WithFields(logrus.Fields{
		"duration_seconds": duration.Seconds(),
	}).Info("Lookup completed successfully")
}

// runJob creates a lookup job and polls it until it finishes.
func runJob(ctx context.Context, client *service.VariableServiceClient, req *structpb.Struct, logger *logrus.Logger) *structpb.Struct {
	created, err := client.CreateJob(ctx, req)
	if err != nil {
		logger.WithError(err).Fatal("CreateJob failed")
	}
	jobID := created.GetFields()["job_id"].GetStringValue()
	logger.WithFields(logrus.Fields{"job_id": jobID}).Info("Lookup job created")

	get, _ := structpb.NewStruct(map[string]interface{}{"job_id": jobID})
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WithError(ctx.Err()).Fatal("Lookup job timed out")
		case <-ticker.C:
			job, err := client.GetJob(ctx, get)
			if err != nil {
				logger.WithError(err).Fatal("GetJob failed")
			}
			fields := job.GetFields()
			status := fields["status"].GetStringValue()
			logger.WithFields(logrus.Fields{
				"status":   status,
				"progress": fields["progress_percent"].GetNumberValue(),
			}).Debug("Job progress")

			switch status {
			case string(service.JobStatusCompleted):
				return fields["result"].GetStructValue()
			case string(service.JobStatusFailed):
				logger.WithField("error", fields["error"].GetStringValue()).Fatal("Lookup job failed")
			}
		}
	}
}

func printResult(res *structpb.Struct) {
	fields := res.GetFields()
	separator := strings.Repeat("=", 80)
	dashLine := strings.Repeat("-", 80)

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("VARIABLE RESULTS")
	fmt.Println(separator)
	fmt.Printf("\nQuery: %s (zh: %v)\n", fields["searchValue"].GetStringValue(), fields["isZH"].GetBoolValue())
	fmt.Printf("Page: %.0f\n", fields["page"].GetNumberValue())

	var suggestions []string
	for _, v := range fields["suggestion"].GetListValue().GetValues() {
		suggestions = append(suggestions, v.GetStringValue())
	}
	fmt.Printf("Suggestions: %s\n", strings.Join(suggestions, ", "))
	fmt.Println()
	fmt.Println(dashLine)

	for _, v := range fields["variableList"].GetListValue().GetValues() {
		item := v.GetStructValue().GetFields()
		fmt.Printf("%-40s %-12s %s\n",
			item["keyword"].GetStringValue(),
			item["repoLang"].GetStringValue(),
			item["repoLink"].GetStringValue())
	}
	fmt.Println(separator)
}
