// Package seed holds the built-in question set used to populate an empty
// pool and to run without MongoDB.
package seed

import "partyroom/internal/model"

func q(rate int, tag model.QuestionTag, text, alt string) model.Question {
	return model.Question{Text: text, TextAlt: alt, Rate: rate, Tag: tag}
}

// Questions returns a fresh copy of the built-in pool
func Questions() []model.Question {
	return []model.Question{
		q(1, model.TagNone, "What was your favorite cartoon growing up?", ""),
		q(1, model.TagNone, "Which food could you eat every day for a year?", ""),
		q(1, model.TagNone, "What is the last song you had stuck in your head?", ""),
		q(1, model.TagFriend, "Which player here would you trust to plan a road trip?", ""),
		q(1, model.TagRandom, "Describe your morning in three words.", ""),
		q(1, model.TagNone, "If you could live in any city for a month, which would it be?", ""),

		q(2, model.TagNone, "What is a hobby you dropped and secretly miss?", ""),
		q(2, model.TagNone, "What is the worst gift you ever received?", ""),
		q(2, model.TagFriend, "Who in this room would survive longest on a desert island?", ""),
		q(2, model.TagFriend, "Which player here gives the best advice?", ""),
		q(2, model.TagRandom, "Name something you believed as a kid that turned out to be false.", ""),
		q(2, model.TagNone, "What app do you open first every morning?", ""),

		q(3, model.TagNone, "What is the most embarrassing thing in your search history this week?", ""),
		q(3, model.TagNone, "When did you last cry at a movie, and which one?", ""),
		q(3, model.TagFriend, "Which player here would you call at 3am for help?", ""),
		q(3, model.TagFriend, "What is your first impression of the player to your left?", "What is your first impression of the player to your right?"),
		q(3, model.TagRandom, "Tell us about a rule you broke and never got caught for.", ""),
		q(3, model.TagNone, "What is a habit of yours that annoys the people you live with?", ""),

		q(4, model.TagNone, "What is the biggest lie you told to get out of plans?", ""),
		q(4, model.TagNone, "Which of your exes would you text if you had to pick one?", ""),
		q(4, model.TagFriend, "Which player here would you swap lives with for a week?", ""),
		q(4, model.TagFriend, "Who here do you think keeps the most secrets?", ""),
		q(4, model.TagRandom, "Show the group the last photo on your phone.", ""),
		q(4, model.TagNone, "What is something you pretend to like but actually can't stand?", ""),

		q(5, model.TagNone, "What is the most impulsive thing you have ever done?", ""),
		q(5, model.TagNone, "What is a secret you have never told anyone in this room?", ""),
		q(5, model.TagFriend, "Which player here would you least want to be stuck in an elevator with?", ""),
		q(5, model.TagFriend, "Read out the last message you sent to someone in this room.", ""),
		q(5, model.TagRandom, "Let the group post one story from your account.", ""),
		q(5, model.TagNone, "What is the worst decision you made this year?", ""),
	}
}
