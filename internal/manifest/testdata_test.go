package manifest

const sampleManifest = `
version: "1"
prefix: robot
log:
  level: debug
nats:
  url: nats://localhost:4222
structs:
  - name: Arm
    schema: "int32 joint;Rotation2d angle;bool homed"
    nested: Rotation2d
  - name: Cell
    schema: "Arm arm;int32 slot"
    nested: [Arm]
entries:
  - key: pose
    struct: Pose2d
    value:
      translation: {x: 1, y: 2}
      rotation: {value: 0.5}
  - key: arm
    struct: Arm
    strategy: struct
    value:
      joint: 3
      angle: {value: 1.5}
      homed: true
  - key: height
    type: distance
    value: 0.5
    config:
      unit: cm
      precision: 1
  - key: heading
    type: pose2d
    value:
      translation: {x: 1, y: 1}
      rotation: {radians: 3.14159}
    config:
      converters:
        angle: degrees
  - key: ignored
    type: bool
    value: true
    config:
      key: status/enabled
`
