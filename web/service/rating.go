package service

// ratingColumn computes a title's rating from its reviews at read time.
// AVG over no rows is NULL, which reads back as an unrated title.
const ratingColumn = "(SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS rating"
