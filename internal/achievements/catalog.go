// Package achievements keeps the statistics counters and unlocks rewards
// when lifecycle events satisfy their rules.
package achievements

// Achievement is one catalog entry.
type Achievement struct {
	ID          int
	Title       string
	Description string
}

// Catalog lists every achievement in id order.
var Catalog = []Achievement{
	{1, "Akela Missed", "Lose your first game"},
	{2, "On Your Marks", "Play your first game"},
	{3, "First Victory", "Win your first game"},
	{4, "Tactical Genius", "Win a draw-one game without a single undo"},
	{5, "Is That a Lot?", "Win a game in 5 minutes or less"},
	{6, "Lightning Mind", "Win a game in 3 minutes or less"},
	{7, "Hat Trick", "Win 3 games in a row"},
	{8, "On a Roll", "Win 5 games in a row"},
	{9, "Don't Stop Me Now", "Win 10 games in a row"},
	{10, "Top Marks", "Win 5 games in one calendar day"},
	{11, "Ten Points", "Win 10 games in one calendar day"},
	{12, "Calendar Flip", "Win 3 games in one calendar day"},
	{13, "Beaten, Not Broken", "Lose a game and win the next one"},
	{14, "Will to Win", "Lose 3 games in a row and win the next one"},
	{15, "Lucky in Misfortune", "Lose 10 games in a row"},
	{16, "Clean Victory", "Win a draw-three game without a single undo"},
	{17, "I Have a Plan", "Win a game in 120 moves or fewer"},
	{18, "Sprinter", "Play 20 games"},
	{19, "Marathoner", "Play 50 games"},
	{20, "Fifty More", "Play 100 games"},
	{21, "One and a Half", "Play 150 games"},
	{22, "Tractor", "Play 300 games"},
	{23, "Playing Against Myself", "Beat your best time 5 times"},
	{24, "Gaining Speed", "Set a personal best under 5 minutes"},
	{25, "Don't Panic", "Win a game using exactly one undo"},
	{26, "Quick to Forgive", "Start a new game within 10 seconds of giving up"},
	{27, "Habit", "Open the game 3 days in a row"},
	{28, "Seven Eleven", "Open the game 7 days in a row"},
	{29, "Life Is a Game", "Play at least one game 5 days in a row"},
	{30, "Prodigal Son", "Come back and play after 30 days away"},
	{31, "Vacationer", "Come back and play after 14 days away"},
	{32, "Learning from Mistakes", "Win a game using undo at least 5 times"},
	{33, "Cheater", "Win a game using undo 10 or more times"},
	{34, "Ninja Turtle", "Win a game that took longer than 30 minutes"},
	{35, "Night Owl", "Win the first game of the day after 23:00"},
	{36, "Early Bird", "Win the first game of the day before 7:00"},
	{37, "Persistent", "Play 10 games in a row without going back to the menu"},
	{38, "No Room for Error", "Win 3 games in a row without undo"},
	{39, "Right on Time", "Win a game in exactly 4 minutes 56 seconds"},
}

// Lookup returns the catalog entry for id.
func Lookup(id int) (Achievement, bool) {
	if id < 1 || id > len(Catalog) {
		return Achievement{}, false
	}
	return Catalog[id-1], true
}

// Total returns the number of achievements in the catalog.
func Total() int {
	return len(Catalog)
}
