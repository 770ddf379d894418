package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

var commonSurnames = []string{
	"Nguyen", "Tran", "Le", "Pham", "Hoang", "Huynh", "Phan", "Vu", "Vo", "Dang",
	"Bui", "Do", "Ho", "Ngo", "Duong", "Ly",
}
var commonMiddleNames = []string{"Van", "Thi", "Minh", "Duc", "Ngoc", "Quoc", "Thanh", "Huu"}
var commonGivenNames = []string{
	"An", "Binh", "Cuong", "Dung", "Giang", "Hai", "Hanh", "Hieu", "Hoa", "Hung",
	"Khanh", "Lan", "Linh", "Long", "Mai", "Nam", "Phong", "Phuc", "Quan", "Son",
	"Tam", "Thao", "Trung", "Tuan", "Viet", "Yen",
}

func GenerateRandomVietnameseName() string {
	return commonSurnames[rand.Intn(len(commonSurnames))] + " " +
		commonMiddleNames[rand.Intn(len(commonMiddleNames))] + " " +
		commonGivenNames[rand.Intn(len(commonGivenNames))]
}

var digits = "0123456789"
var letters = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(len(letters))]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// emailLocalPart turns "Nguyen Van An" into "an.nguyen".
func emailLocalPart(fullName string) string {
	parts := strings.Fields(strings.ToLower(fullName))
	if len(parts) == 0 {
		return "guard"
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[len(parts)-1] + "." + parts[0]
}

func GenerateRandomGuard(emailDomainName string) *domain.Guard {
	fullName := GenerateRandomVietnameseName()
	code := "G" + GenerateRandomID(0, 6)
	return &domain.Guard{
		FullName:     fullName,
		EmployeeCode: code,
		Email:        emailLocalPart(fullName) + "." + strings.ToLower(code) + "@" + emailDomainName,
		IsActive:     true,
	}
}

var teamCallsigns = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel"}

func GenerateRandomTeam() *domain.Team {
	return &domain.Team{
		Name:     teamCallsigns[rand.Intn(len(teamCallsigns))] + "-" + GenerateRandomID(2, 2),
		IsActive: true,
	}
}

// GenerateRandomApplicableDays shuffles the week with Fisher-Yates and keeps a random prefix.
func GenerateRandomApplicableDays() []int {
	days := []int{1, 2, 3, 4, 5, 6, 7}

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rand.Intn(len(days)) + 1

	return days[:n]
}

// GenerateRandomSubset picks a random non-empty subset with a partial Fisher-Yates shuffle.
func GenerateRandomSubset[T any](arr []T) []T {
	if len(arr) == 0 {
		return nil
	}
	arrCopy := append([]T{}, arr...)

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}

// the three standard guard rotations
var shiftStarts = []int{6, 14, 22}

func GenerateRandomShiftTemplate(contractID, locationID int64, teamID *int64, effectiveFrom time.Time) *domain.ShiftTemplate {
	startHour := shiftStarts[rand.Intn(len(shiftStarts))]
	endHour := (startHour + 8) % 24
	minGuards := int32(rand.Intn(3) + 1)
	optimal := minGuards + int32(rand.Intn(3))

	t := &domain.ShiftTemplate{
		ContractID:      &contractID,
		TeamID:          teamID,
		Name:            fmt.Sprintf("Post %s %02d:00", GenerateRandomID(2, 2), startHour),
		LocationID:      locationID,
		StartTime:       fmt.Sprintf("%02d:00:00", startHour),
		EndTime:         fmt.Sprintf("%02d:00:00", endHour),
		CrossesMidnight: endHour < startHour,
		BreakMinutes:    int32(rand.Intn(4) * 15),
		EffectiveFrom:   effectiveFrom,
		MinGuards:       minGuards,
		OptimalGuards:   optimal,
		MaxGuards:       optimal + 1,
		Status:          domain.TemplateStatusAwaitingShiftCreation,
		IsActive:        true,
	}

	for _, d := range GenerateRandomApplicableDays() {
		switch d {
		case 1:
			t.AppliesMonday = true
		case 2:
			t.AppliesTuesday = true
		case 3:
			t.AppliesWednesday = true
		case 4:
			t.AppliesThursday = true
		case 5:
			t.AppliesFriday = true
		case 6:
			t.AppliesSaturday = true
		case 7:
			t.AppliesSunday = true
		}
	}

	return t
}
