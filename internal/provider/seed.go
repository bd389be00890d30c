package provider

import "github.com/iliyamo/provider-sync/internal/model"

func strPtr(s string) *string { return &s }

// DemoReservations is the fixture used by `agent seed` and the tests.
func DemoReservations() []model.Reservation {
	return []model.Reservation{
		{
			ID: "RSV-001", Date: "2025-05-18", Start: "10:00", End: "11:30",
			Experience: "STEAM Creative Lab", Venue: "Meguro Studio A", Mentor: "Hikari Sato",
			Child:    model.Child{Name: "Yu Yamamoto", Kana: "yamamoto yu", Age: "grade 3"},
			Guardian: model.Guardian{Name: "Sayaka Yamamoto", Phone: strPtr("080-0000-1111"), Email: strPtr("s_yamamoto@example.jp")},
			Profile: model.Profile{
				Strengths:  []string{"strong focus", "natural leader"},
				WeakPoints: []string{"nervous with strangers"},
				Recent:     "Keen to lead the group assignment wrap-up.",
			},
			History: []model.HistoryEntry{
				{Date: "2025-05-11", Experience: "STEAM Creative", Memo: "presented on their own"},
				{Date: "2025-04-28", Experience: "Makers Lab", Memo: "finished the 3D model design"},
				{Date: "2025-04-14", Experience: "Science Experiments", Memo: "asked lots of questions"},
			},
			Status: model.StatusBooked,
		},
		{
			ID: "RSV-002", Date: "2025-05-18", Start: "13:00", End: "14:00",
			Experience: "English Activities", Venue: "Online", Mentor: "Shun Otomo",
			Child:    model.Child{Name: "Kai Ito", Age: "grade 5"},
			Guardian: model.Guardian{Name: "Mai Ito", Phone: strPtr("090-1234-5678"), Email: strPtr("ito_family@example.jp")},
			Profile: model.Profile{
				Strengths:  []string{"logical thinking", "good questions"},
				WeakPoints: []string{"loses focus in long lectures"},
				Recent:     "Supported the team during the programming session.",
			},
			History: []model.HistoryEntry{{Date: "2025-05-05", Experience: "Mentor Programming", Memo: "completed the game logic"}},
			Status:  model.StatusArrived,
		},
		{
			ID: "RSV-003", Date: "2025-05-18", Start: "15:00", End: "16:30",
			Experience: "Rhythm Gymnastics", Venue: "Shibuya Studio B", Mentor: "Haru Kato",
			Child:    model.Child{Name: "Momo Nishida", Kana: "nishida momo", Age: "grade 2"},
			Guardian: model.Guardian{Name: "Hiromi Nishida"},
			Profile: model.Profile{
				Strengths:  []string{"expressive"},
				WeakPoints: []string{"nervous with strangers"},
				Recent:     "Practising for the recital, also at home.",
			},
			History: []model.HistoryEntry{{Date: "2025-05-10", Experience: "Kids Dance", Memo: "danced to the end with a smile"}},
			Status:  model.StatusBooked,
		},
	}
}

// DemoSlots is the slot fixture matching DemoReservations.
func DemoSlots() []model.Slot {
	return []model.Slot{
		{
			ID: "SLOT-001", Experience: "STEAM Creative", Date: "2025-10-02", Start: "10:00", End: "11:30",
			Venue: "Meguro Studio A", Capacity: 8, Remaining: 2, AgeRange: "8-11", Mentor: "Hikari Sato",
			State: model.SlotPublished, Price: strPtr("¥6,600"), Category: strPtr("STEAM"), Tags: []string{"popular"},
			DeadlineHours: 3, Repeat: &model.Repeat{Type: model.RepeatWeekly}, CreatedBy: "tanaka",
		},
		{
			ID: "SLOT-002", Experience: "Programming Basics", Date: "2025-10-02", Start: "14:00", End: "15:30",
			Venue: "Shibuya Studio B", Capacity: 10, Remaining: 5, AgeRange: "10-14", Mentor: "Kenta Tanaka",
			State: model.SlotPublished, Price: strPtr("¥7,200"), Category: strPtr("Programming"), Tags: []string{"beginners"},
			DeadlineHours: 6, Repeat: &model.Repeat{Type: model.RepeatNone}, CreatedBy: "tanaka",
		},
		{
			ID: "SLOT-003", Experience: "English Activities", Date: "2025-10-02", Start: "16:00", End: "17:00",
			Venue: "Online", Capacity: 6, Remaining: 0, AgeRange: "7-10", Mentor: "Shun Otomo",
			State: model.SlotFull, Price: strPtr("¥4,500"), Category: strPtr("Languages"), Tags: []string{"online"},
			DeadlineHours: 1, Repeat: &model.Repeat{Type: model.RepeatWeekly}, CreatedBy: "tanaka",
		},
		{
			ID: "SLOT-009", Experience: "Cooking", Date: "2025-10-05", Start: "14:00", End: "16:00",
			Venue: "Meguro Studio A", Capacity: 6, Remaining: 6, AgeRange: "7-11", Mentor: "Sakura Yamada",
			State: model.SlotDraft, Price: strPtr("¥5,800"), Category: strPtr("Cooking"), Tags: []string{"trial"},
			DeadlineHours: 24, Repeat: &model.Repeat{Type: model.RepeatNone}, CreatedBy: "tanaka",
		},
	}
}
