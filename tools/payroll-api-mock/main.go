package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// A simple struct to capture the incoming session data
type SessionRecord struct {
	SessionID   int64     `json:"sessionId"`
	EmployeeID  string    `json:"employeeId"`
	CheckIn     time.Time `json:"checkIn"`
	CheckOut    time.Time `json:"checkOut"`
	WorkedHours float64   `json:"workedHours"`
	Status      string    `json:"status"`
}

func sessionHandler(w http.ResponseWriter, r *http.Request) {
	var record SessionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	log.Printf("Received session for EmployeeID: %s, Hours: %.2f, Status: %s", record.EmployeeID, record.WorkedHours, record.Status)
	w.WriteHeader(http.StatusOK)
}

func main() {
	http.HandleFunc("/", sessionHandler)
	log.Println("Payroll API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
