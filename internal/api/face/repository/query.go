package faceRepository

const (
	queryCreateDetection = `
		INSERT INTO face_detections (
			id,
			source,
			original_filename,
			saved_path,
			faces_detected,
			faces,
			created_at
		) VALUES (
			:id,
			:source,
			:original_filename,
			:saved_path,
			:faces_detected,
			:faces,
			:created_at
		)
	`

	queryGetDetectionByID = `
		SELECT
			id,
			source,
			original_filename,
			saved_path,
			faces_detected,
			faces,
			created_at
		FROM face_detections
		WHERE id = :id
	`

	queryListDetections = `
		SELECT
			id,
			source,
			original_filename,
			saved_path,
			faces_detected,
			faces,
			created_at
		FROM face_detections
		ORDER BY created_at DESC
		LIMIT :limit
	`

	queryDeleteDetection = `
		DELETE FROM face_detections
		WHERE id = :id
	`
)
