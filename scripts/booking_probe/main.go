// Command booking_probe fires concurrent booking requests for the same slot
// against a running server and verifies exactly one succeeds. It is a smoke
// check for the booking serialization guarantee, meant to run against a
// disposable environment.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type bookingRequest struct {
	PractitionerID  string `json:"practitioner_id"`
	PatientID       string `json:"patient_id"`
	Title           string `json:"title"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type attempt struct {
	Status   int
	Body     string
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base           string
		token          string
		practitionerID string
		patientID      string
		start          string
		duration       int
		concurrency    int
		timeout        time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for the staff account")
	flag.StringVar(&practitionerID, "practitioner", "", "Practitioner id to book against")
	flag.StringVar(&patientID, "patient", "", "Patient id to book for")
	flag.StringVar(&start, "start", "", "Slot start time, RFC3339 UTC")
	flag.IntVar(&duration, "duration", 30, "Slot duration in minutes")
	flag.IntVar(&concurrency, "concurrency", 8, "Number of simultaneous booking attempts")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if practitionerID == "" || patientID == "" || start == "" {
		log.Fatal("practitioner, patient and start are required")
	}

	payload, err := json.Marshal(bookingRequest{
		PractitionerID:  practitionerID,
		PatientID:       patientID,
		Title:           "Booking probe",
		StartTime:       start,
		DurationMinutes: duration,
	})
	if err != nil {
		log.Fatalf("failed to build payload: %v", err)
	}

	url := strings.TrimRight(base, "/") + "/api/v1/appointments"
	client := &http.Client{Timeout: timeout}

	attempts := make([]attempt, concurrency)
	var wg sync.WaitGroup
	release := make(chan struct{})

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-release
			attempts[idx] = book(client, url, token, payload)
		}(i)
	}

	close(release)
	wg.Wait()

	var created, conflicts, other int
	for i, a := range attempts {
		if a.Err != nil {
			fmt.Printf("attempt %d: error: %v\n", i, a.Err)
			other++
			continue
		}
		fmt.Printf("attempt %d: status=%d duration=%s\n", i, a.Status, a.Duration)
		switch a.Status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			fmt.Printf("attempt %d: unexpected body: %s\n", i, a.Body)
			other++
		}
	}

	fmt.Printf("created=%d conflicts=%d other=%d\n", created, conflicts, other)
	if created != 1 || other > 0 {
		fmt.Println("FAIL: expected exactly one created booking and the rest conflicts")
		os.Exit(1)
	}
	fmt.Println("OK: booking serialization held")
}

func book(client *http.Client, url, token string, payload []byte) attempt {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return attempt{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return attempt{Err: err, Duration: time.Since(started)}
	}
	defer resp.Body.Close()

	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	return attempt{Status: resp.StatusCode, Body: body.String(), Duration: time.Since(started)}
}
