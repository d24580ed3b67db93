package transform

import (
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/models"
)

type weekday struct {
	number    int
	name      string
	openKey   string
	closeKey  string
	closedKey string
}

var weekdays = []weekday{
	{1, "Monday", "MondayOpenTime", "MondayCloseTime", "MondayClosed"},
	{2, "Tuesday", "TuesdayOpenTime", "TuesdayCloseTime", "TuesdayClosed"},
	{3, "Wednesday", "WednesdayOpenTime", "WednesdayCloseTime", "WednesdayClosed"},
	{4, "Thursday", "ThursdayOpenTime", "ThursdayCloseTime", "ThursdayClosed"},
	{5, "Friday", "FridayOpenTime", "FridayCloseTime", "FridayClosed"},
	{6, "Saturday", "SaturdayOpenTime", "SaturdayCloseTime", "SaturdayClosed"},
	{7, "Sunday", "SundayOpenTime", "SundayCloseTime", "SundayClosed"},
}

// Location converts one raw Nexudus business payload into a typed
// location. The root business account and demo location transform to
// ErrExcluded.
func Location(payload string, rawRecordID int64, runID string) (*models.Location, error) {
	r, err := decode(payload)
	if err != nil {
		return nil, err
	}

	sourceID, err := r.sourceID()
	if err != nil {
		return nil, err
	}
	if excludedLocationIDs[sourceID] {
		return nil, ErrExcluded
	}

	name := r.strAt("Name")
	if name == nil {
		name = r.strAt("ToStringText")
	}
	if name == nil {
		unknown := "Unknown"
		name = &unknown
	}

	return &models.Location{
		SourceID:     sourceID,
		RawRecordID:  rawRecordID,
		SyncRunID:    runID,
		UUID:         r.strAt("UniqueId"),
		Name:         *name,
		WebAddress:   r.strAt("WebAddress"),
		Address:      r.strAt("Address"),
		PostalCode:   r.strAt("PostalCode"),
		City:         r.strAt("TownCity"),
		State:        r.strAt("State"),
		CountryName:  r.strAt("CountryName"),
		CountryID:    r.int64At("CountryId"),
		Latitude:     r.floatAt("Latitude"),
		Longitude:    r.floatAt("Longitude"),
		Phone:        r.strAt("Phone"),
		Email:        r.strAt("EmailContact"),
		WebContact:   r.strAt("WebContact"),
		CurrencyCode: r.strAt("CurrencyCode"),
		Description:  r.htmlAt("AboutUs"),
		ShortIntro:   r.htmlAt("ShortIntroduction"),
		CreatedOn:    r.timeAt("CreatedOn"),
		UpdatedOn:    r.timeAt("UpdatedOn"),
	}, nil
}

// LocationHours converts one raw business payload into seven weekday
// rows. A day with open and close both zero has unknown hours: Nexudus
// sends 0/0 instead of null. The closed flag is independent of the
// times, so "closed" and "hours unknown" stay distinguishable.
func LocationHours(payload string) ([]models.LocationHours, error) {
	r, err := decode(payload)
	if err != nil {
		return nil, err
	}

	sourceID, err := r.sourceID()
	if err != nil {
		return nil, err
	}
	if excludedLocationIDs[sourceID] {
		return nil, ErrExcluded
	}

	hours := make([]models.LocationHours, 0, len(weekdays))
	for _, day := range weekdays {
		openAt := r.intAt(day.openKey)
		closeAt := r.intAt(day.closeKey)
		if openAt != nil && closeAt != nil && *openAt == 0 && *closeAt == 0 {
			openAt, closeAt = nil, nil
		}

		hours = append(hours, models.LocationHours{
			LocationSourceID: sourceID,
			DayOfWeek:        day.number,
			DayName:          day.name,
			IsClosed:         r.boolOr(day.closedKey),
			OpenMinutes:      openAt,
			CloseMinutes:     closeAt,
		})
	}

	return hours, nil
}
