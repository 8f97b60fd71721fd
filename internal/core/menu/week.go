package menu

import "time"

// WeekCalendar 決定週菜單的起始日
type WeekCalendar struct {
	FirstDay time.Weekday
	Location *time.Location
}

// NewWeekCalendar 創建週曆；loc 為 nil 時使用 time.Local
func NewWeekCalendar(firstDay time.Weekday, loc *time.Location) WeekCalendar {
	if loc == nil {
		loc = time.Local
	}
	return WeekCalendar{FirstDay: firstDay, Location: loc}
}

// WeekStart 回傳 now 所在週的第一天零時
func (c WeekCalendar) WeekStart(now time.Time) time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	offset := (int(local.Weekday()) - int(c.FirstDay) + 7) % 7
	return time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
}

// DayDates 回傳從 start 開始的七個日期；以日曆日遞增，不受夏令時間影響
func (c WeekCalendar) DayDates(start time.Time) []time.Time {
	dates := make([]time.Time, DaysPerWeek)
	for i := range dates {
		dates[i] = time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, start.Location())
	}
	return dates
}
